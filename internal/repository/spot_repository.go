package repository // repository defines data access for parking spots

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel comparisons
	"fmt"          // fmt formats spot labels
)

// Spot represents one parking space within a lot.  Status is a single
// character: 'A' for Available, 'O' for Occupied.
type Spot struct {
	ID        uint64 // primary key
	LotID     uint64 // FK -> parking_lots.id
	Label     string // e.g. S001
	Status    string // A | O
	CreatedAt string
	UpdatedAt string
}

// SpotLabel formats a label sequence number as the human readable spot
// code, e.g. 1 -> S001.  Sequence numbers come from the lot's
// next_spot_seq counter, so labels keep growing past S999 without
// wrapping or colliding.
func SpotLabel(seq uint32) string {
	return fmt.Sprintf("S%03d", seq)
}

// SpotRepo provides methods to work with spots in the database.
type SpotRepo struct {
	db *sql.DB
}

// NewSpotRepo constructs a SpotRepo with the given DB handle.
func NewSpotRepo(db *sql.DB) *SpotRepo {
	return &SpotRepo{db: db}
}

// ProvisionTx inserts count new Available spots for a lot in a single
// statement, labelling them from startSeq onward.  The caller reserves
// the sequence range beforehand (LotRepo.ReserveLabelSeqTx) while
// holding the lot's row lock.  Passing count == 0 has no effect.
func (r *SpotRepo) ProvisionTx(ctx context.Context, tx *sql.Tx, lotID uint64, startSeq, count uint32) error {
	if count == 0 {
		return nil
	}
	query := `INSERT INTO parking_spots (lot_id, label, status) VALUES `
	args := make([]interface{}, 0, count*2)
	for i := uint32(0); i < count; i++ {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, 'A')"
		args = append(args, lotID, SpotLabel(startSeq+i))
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// FirstAvailableTx locks and returns the lowest-id Available spot of a
// lot.  The FOR UPDATE clause makes the pick atomic with the following
// status flip: a concurrent booking either blocks on this row or skips
// it once the status change commits.  ErrNoSpotAvailable is returned
// when the lot is full.
func (r *SpotRepo) FirstAvailableTx(ctx context.Context, tx *sql.Tx, lotID uint64) (*Spot, error) {
	const q = `SELECT id, lot_id, label, status, created_at, updated_at
	           FROM parking_spots
	           WHERE lot_id = ? AND status = 'A'
	           ORDER BY id
	           LIMIT 1
	           FOR UPDATE`
	var s Spot
	err := tx.QueryRowContext(ctx, q, lotID).
		Scan(&s.ID, &s.LotID, &s.Label, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSpotAvailable
		}
		return nil, err
	}
	return &s, nil
}

// UpdateStatusTx flips a spot's status ('A' or 'O') within a
// transaction.  Returns sql.ErrNoRows when the spot does not exist.
func (r *SpotRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	const q = `UPDATE parking_spots SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ShrinkTx removes up to excess Available spots from a lot, picking
// candidates in ascending id order and skipping Occupied ones.  When
// fewer Available spots exist than requested, the shrink proceeds only
// as far as possible and the lot is left with more spots than its
// configured maximum; callers report the number actually removed.
func (r *SpotRepo) ShrinkTx(ctx context.Context, tx *sql.Tx, lotID uint64, excess uint32) (uint32, error) {
	if excess == 0 {
		return 0, nil
	}
	const q = `DELETE FROM parking_spots
	           WHERE lot_id = ? AND status = 'A'
	           ORDER BY id
	           LIMIT ?`
	res, err := tx.ExecContext(ctx, q, lotID, excess)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// CountByLotTx returns the number of provisioned spots of a lot inside
// a transaction, locking the counted rows so a concurrent resize sees
// a stable view.
func (r *SpotRepo) CountByLotTx(ctx context.Context, tx *sql.Tx, lotID uint64) (uint32, error) {
	var n uint32
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_spots WHERE lot_id = ? FOR UPDATE`, lotID).Scan(&n)
	return n, err
}

// CountAll returns the total number of spots, optionally filtered by
// status when status is non-empty.  Used by the admin summary.
func (r *SpotRepo) CountAll(ctx context.Context, status string) (uint32, error) {
	var n uint32
	if status == "" {
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_spots`).Scan(&n)
		return n, err
	}
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_spots WHERE status = ?`, status).Scan(&n)
	return n, err
}

// ListByLot retrieves all spots of a lot ordered by id.
func (r *SpotRepo) ListByLot(ctx context.Context, lotID uint64) ([]Spot, error) {
	const q = `SELECT id, lot_id, label, status, created_at, updated_at
	           FROM parking_spots
	           WHERE lot_id = ?
	           ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Spot
	for rows.Next() {
		var s Spot
		if err := rows.Scan(&s.ID, &s.LotID, &s.Label, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
