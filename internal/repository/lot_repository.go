package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors package allows sentinel error definitions
	"time"         // time holds timestamp columns
)

// Lot represents a parking facility row as stored in parking_lots.
// NextSpotSeq is the monotonic counter used for spot label generation;
// it is advanced under the lot's row lock so labels never collide even
// after repeated grow/shrink cycles.
type Lot struct {
	ID           uint64    // ID is the primary key of the lot
	Name         string    // Name is a human readable label for the lot
	Address      string    // Address is the street address
	PostalCode   string    // PostalCode is the postal code
	PricePerHour float64   // PricePerHour is the hourly price, always positive
	MaxSpots     uint32    // MaxSpots is the configured capacity
	NextSpotSeq  uint32    // NextSpotSeq is the next label sequence number
	CreatedAt    time.Time // CreatedAt stores creation timestamp
	UpdatedAt    time.Time // UpdatedAt stores last update timestamp
}

// LotAvailability is a browse row combining a lot with its live spot
// counts.  It is returned by ListWithAvailability for the public API.
type LotAvailability struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	PostalCode   string  `json:"postal_code"`
	PricePerHour float64 `json:"price_per_hour"`
	Available    uint32  `json:"available_spots"`
	Total        uint32  `json:"total_spots"`
}

// LotRepo provides methods to create and retrieve parking lots.  It
// embeds a database handle to perform queries and commands.
type LotRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewLotRepo constructs a LotRepo with the given DB handle.
func NewLotRepo(db *sql.DB) *LotRepo {
	return &LotRepo{db: db}
}

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *LotRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new lot within an existing transaction and reads
// the row back so defaults (counter, timestamps) are populated.  The
// caller must commit or roll back the transaction.
func (r *LotRepo) CreateTx(ctx context.Context, tx *sql.Tx, l *Lot) error {
	const qInsert = `INSERT INTO parking_lots (name, address, postal_code, price_per_hour, max_spots)
	                 VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert, l.Name, l.Address, l.PostalCode, l.PricePerHour, l.MaxSpots)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)

	const qSelect = `SELECT id, name, address, postal_code, price_per_hour, max_spots, next_spot_seq, created_at, updated_at
	                 FROM parking_lots WHERE id = ?`
	return tx.QueryRowContext(ctx, qSelect, l.ID).
		Scan(&l.ID, &l.Name, &l.Address, &l.PostalCode, &l.PricePerHour, &l.MaxSpots, &l.NextSpotSeq, &l.CreatedAt, &l.UpdatedAt)
}

// GetByID retrieves a lot by its ID.  It returns ErrLotNotFound when
// no row is found.
func (r *LotRepo) GetByID(ctx context.Context, id uint64) (*Lot, error) {
	const q = `SELECT id, name, address, postal_code, price_per_hour, max_spots, next_spot_seq, created_at, updated_at
	           FROM parking_lots WHERE id = ?`
	var l Lot
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&l.ID, &l.Name, &l.Address, &l.PostalCode, &l.PricePerHour, &l.MaxSpots, &l.NextSpotSeq, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}
	return &l, nil
}

// GetForUpdateTx loads a lot inside a transaction holding its row lock.
// Resize and delete operations take this lock first so they serialize
// against concurrent bookings targeting spots in the same lot.
func (r *LotRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*Lot, error) {
	const q = `SELECT id, name, address, postal_code, price_per_hour, max_spots, next_spot_seq, created_at, updated_at
	           FROM parking_lots WHERE id = ? FOR UPDATE`
	var l Lot
	err := tx.QueryRowContext(ctx, q, id).
		Scan(&l.ID, &l.Name, &l.Address, &l.PostalCode, &l.PricePerHour, &l.MaxSpots, &l.NextSpotSeq, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}
	return &l, nil
}

// UpdateTx persists mutable lot fields (name/address/postal_code/price/capacity)
// within a transaction.  Returns sql.ErrNoRows when the lot vanished.
func (r *LotRepo) UpdateTx(ctx context.Context, tx *sql.Tx, l *Lot) error {
	const q = `UPDATE parking_lots
	           SET name = ?, address = ?, postal_code = ?, price_per_hour = ?, max_spots = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, l.Name, l.Address, l.PostalCode, l.PricePerHour, l.MaxSpots, l.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReserveLabelSeqTx hands out n consecutive label sequence numbers for
// a lot and advances the counter.  The caller must already hold the
// lot's row lock (GetForUpdateTx).  It returns the first reserved
// sequence number; labels are then seq, seq+1, ..., seq+n-1.
func (r *LotRepo) ReserveLabelSeqTx(ctx context.Context, tx *sql.Tx, lotID uint64, n uint32) (uint32, error) {
	var seq uint32
	if err := tx.QueryRowContext(ctx, `SELECT next_spot_seq FROM parking_lots WHERE id = ? FOR UPDATE`, lotID).Scan(&seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrLotNotFound
		}
		return 0, err
	}
	const q = `UPDATE parking_lots SET next_spot_seq = next_spot_seq + ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, n, lotID); err != nil {
		return 0, err
	}
	return seq, nil
}

// DeleteTx removes a lot after verifying none of its spots is occupied.
// Spots are removed by the ON DELETE CASCADE constraint; historical
// reservations survive with their spot_id nulled.  It returns
// ErrLotOccupied when at least one spot is occupied and sql.ErrNoRows
// when the lot does not exist.
func (r *LotRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var occupied uint32
	const qCheck = `SELECT COUNT(*) FROM parking_spots WHERE lot_id = ? AND status = 'O' FOR UPDATE`
	if err := tx.QueryRowContext(ctx, qCheck, id).Scan(&occupied); err != nil {
		return err
	}
	if occupied > 0 {
		return ErrLotOccupied
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListWithAvailability returns all lots together with their available
// and total spot counts, ordered by id.  Used by the public browse
// endpoint; occupancy is derived, never stored on the lot.
func (r *LotRepo) ListWithAvailability(ctx context.Context) ([]LotAvailability, error) {
	const q = `SELECT l.id, l.name, l.address, l.postal_code, l.price_per_hour,
	                  COALESCE(SUM(s.status = 'A'), 0), COUNT(s.id)
	           FROM parking_lots l
	           LEFT JOIN parking_spots s ON s.lot_id = l.id
	           GROUP BY l.id, l.name, l.address, l.postal_code, l.price_per_hour
	           ORDER BY l.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LotAvailability, 0)
	for rows.Next() {
		var la LotAvailability
		if err := rows.Scan(&la.ID, &la.Name, &la.Address, &la.PostalCode, &la.PricePerHour, &la.Available, &la.Total); err != nil {
			return nil, err
		}
		out = append(out, la)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of lots.  Used by the admin summary.
func (r *LotRepo) Count(ctx context.Context) (uint32, error) {
	var n uint32
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_lots`).Scan(&n)
	return n, err
}
