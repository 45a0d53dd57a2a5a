package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"
)

// ReservationRepo provides CRUD operations for parking reservations.
// A reservation ties one user to one spot for a span of time.  Rows
// are written once at booking and mutated exactly once at release;
// everything else is immutable history.  All timestamp columns are
// stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationRecord mirrors the schema of the reservations table.
// Nullable columns map to pointers: SpotID survives spot deletion as
// NULL, and EndedAt/Cost stay NULL until release.
type ReservationRecord struct {
    ID            uint64
    SpotID        *uint64
    UserID        uint64
    LotID         uint64
    SpotLabel     string
    VehicleNumber string
    StartedAt     *time.Time
    EndedAt       *time.Time
    Cost          *float64
    Status        string
    CreatedAt     time.Time
    UpdatedAt     time.Time
}

func scanRecord(row interface{ Scan(...interface{}) error }, rec *ReservationRecord) error {
    var spotID sql.NullInt64
    var startedAt, endedAt sql.NullTime
    var cost sql.NullFloat64
    if err := row.Scan(
        &rec.ID, &spotID, &rec.UserID, &rec.LotID, &rec.SpotLabel, &rec.VehicleNumber,
        &startedAt, &endedAt, &cost, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
    ); err != nil {
        return err
    }
    if spotID.Valid {
        v := uint64(spotID.Int64)
        rec.SpotID = &v
    }
    if startedAt.Valid {
        t := startedAt.Time
        rec.StartedAt = &t
    }
    if endedAt.Valid {
        t := endedAt.Time
        rec.EndedAt = &t
    }
    if cost.Valid {
        v := cost.Float64
        rec.Cost = &v
    }
    return nil
}

const recordColumns = `id, spot_id, user_id, lot_id, spot_label, vehicle_number,
                       started_at, ended_at, cost, status, created_at, updated_at`

// ActiveByUserTx locks and returns the user's ACTIVE reservation inside
// a transaction.  At most one such row exists per user; the lock keeps
// a concurrent booking by the same user from slipping past the
// one-active-reservation check.  When no ACTIVE row exists yet, two
// simultaneous bookings by the same user serialize on InnoDB gap locks
// instead: one of them is rolled back as a deadlock victim and the
// client retries, so the invariant holds without a duplicate row.
// ErrNoActiveReservation is returned when the user is not currently
// parked.
func (r *ReservationRepo) ActiveByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (*ReservationRecord, error) {
    const q = `SELECT ` + recordColumns + `
               FROM reservations
               WHERE user_id = ? AND status = 'ACTIVE'
               LIMIT 1
               FOR UPDATE`
    var rec ReservationRecord
    if err := scanRecord(tx.QueryRowContext(ctx, q, userID), &rec); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNoActiveReservation
        }
        return nil, err
    }
    return &rec, nil
}

// CreateTx inserts a new ACTIVE reservation within the scope of an
// existing transaction.  The start timestamp is set to the current UTC
// time by the database.  The generated ID and column defaults are
// populated on the provided record.  The caller must commit or
// rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *ReservationRecord) error {
    const q = `INSERT INTO reservations (spot_id, user_id, lot_id, spot_label, vehicle_number, started_at, status)
               VALUES (?, ?, ?, ?, ?, UTC_TIMESTAMP(), 'ACTIVE')`
    result, err := tx.ExecContext(ctx, q, rec.SpotID, rec.UserID, rec.LotID, rec.SpotLabel, rec.VehicleNumber)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    // Query back the full row to populate timestamps and defaults
    const sel = `SELECT ` + recordColumns + ` FROM reservations WHERE id = ?`
    return scanRecord(tx.QueryRowContext(ctx, sel, rec.ID), rec)
}

// ReleaseInfo couples a locked reservation row with the owning lot's
// hourly price, which billing needs to compute the final cost.
type ReleaseInfo struct {
    ReservationRecord
    PricePerHour float64
}

// GetForUpdateTx locks and returns a reservation together with its
// lot's hourly price.  ErrReservationNotFound is returned when the row
// does not exist.  The join goes through the historical lot_id copy
// and is a LEFT JOIN: a COMPLETED reservation whose lot was since
// deleted must still resolve so the status guard can answer, and on
// that branch the price is never used.  An ACTIVE reservation always
// has a live lot, because deletion is refused while a spot is occupied.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*ReleaseInfo, error) {
    const q = `SELECT r.id, r.spot_id, r.user_id, r.lot_id, r.spot_label, r.vehicle_number,
                      r.started_at, r.ended_at, r.cost, r.status, r.created_at, r.updated_at,
                      l.price_per_hour
               FROM reservations r
               LEFT JOIN parking_lots l ON l.id = r.lot_id
               WHERE r.id = ?
               FOR UPDATE`
    var info ReleaseInfo
    var spotID sql.NullInt64
    var startedAt, endedAt sql.NullTime
    var cost, price sql.NullFloat64
    err := tx.QueryRowContext(ctx, q, id).Scan(
        &info.ID, &spotID, &info.UserID, &info.LotID, &info.SpotLabel, &info.VehicleNumber,
        &startedAt, &endedAt, &cost, &info.Status, &info.CreatedAt, &info.UpdatedAt,
        &price,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrReservationNotFound
        }
        return nil, err
    }
    if spotID.Valid {
        v := uint64(spotID.Int64)
        info.SpotID = &v
    }
    if startedAt.Valid {
        t := startedAt.Time
        info.StartedAt = &t
    }
    if endedAt.Valid {
        t := endedAt.Time
        info.EndedAt = &t
    }
    if cost.Valid {
        v := cost.Float64
        info.Cost = &v
    }
    if price.Valid {
        info.PricePerHour = price.Float64
    }
    return &info, nil
}

// CloseTx completes an ACTIVE reservation: the end timestamp is set to
// the current UTC time, the given cost is stored and the status moves
// to COMPLETED.  The status guard in the WHERE clause makes a double
// release impossible; ErrAlreadyCompleted is returned when the row was
// not ACTIVE anymore, leaving stored cost and timestamps untouched.
func (r *ReservationRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, cost float64) error {
    const q = `UPDATE reservations
               SET ended_at = UTC_TIMESTAMP(), cost = ?, status = 'COMPLETED', updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND status = 'ACTIVE'`
    res, err := tx.ExecContext(ctx, q, cost, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrAlreadyCompleted
    }
    return nil
}

// ReservationDetail is a reservation row prepared for display: lot name
// is joined in (nil when the lot has since been deleted) and timestamps
// are RFC3339 strings in UTC.
type ReservationDetail struct {
    ID            uint64   `json:"id"`
    LotID         uint64   `json:"lot_id"`
    LotName       *string  `json:"lot_name,omitempty"`
    SpotLabel     string   `json:"spot_label"`
    VehicleNumber string   `json:"vehicle_number"`
    StartedAt     *string  `json:"started_at"`
    EndedAt       *string  `json:"ended_at,omitempty"`
    Cost          *float64 `json:"cost,omitempty"`
    Status        string   `json:"status"`
}

func detailFromRow(rows *sql.Rows) (*ReservationDetail, error) {
    var d ReservationDetail
    var lotName sql.NullString
    var startedAt, endedAt sql.NullTime
    var cost sql.NullFloat64
    if err := rows.Scan(&d.ID, &d.LotID, &lotName, &d.SpotLabel, &d.VehicleNumber,
        &startedAt, &endedAt, &cost, &d.Status); err != nil {
        return nil, err
    }
    if lotName.Valid {
        n := lotName.String
        d.LotName = &n
    }
    if startedAt.Valid {
        iso := startedAt.Time.UTC().Format(time.RFC3339)
        d.StartedAt = &iso
    }
    if endedAt.Valid {
        iso := endedAt.Time.UTC().Format(time.RFC3339)
        d.EndedAt = &iso
    }
    if cost.Valid {
        v := cost.Float64
        d.Cost = &v
    }
    return &d, nil
}

const detailQuery = `SELECT r.id, r.lot_id, l.name, r.spot_label, r.vehicle_number,
                            r.started_at, r.ended_at, r.cost, r.status
                     FROM reservations r
                     LEFT JOIN parking_lots l ON l.id = r.lot_id`

// ListByUser returns all reservations for the given user: the active
// one first (if any), then completed ones ordered by start time
// descending (most recent first).  When no reservations exist, an
// empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
    const q = detailQuery + `
               WHERE r.user_id = ?
               ORDER BY (r.status = 'ACTIVE') DESC, r.started_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]ReservationDetail, 0)
    for rows.Next() {
        d, err := detailFromRow(rows)
        if err != nil {
            return nil, err
        }
        details = append(details, *d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// GetByIDForUser returns a single reservation for the given user.
// Ownership is enforced in the query; ErrReservationNotFound covers
// both a missing row and a row belonging to another user.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, reservationID, userID uint64) (*ReservationDetail, error) {
    const q = detailQuery + ` WHERE r.id = ? AND r.user_id = ?`
    rows, err := r.db.QueryContext(ctx, q, reservationID, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    if !rows.Next() {
        if err := rows.Err(); err != nil {
            return nil, err
        }
        return nil, ErrReservationNotFound
    }
    return detailFromRow(rows)
}

// OccupantDetail describes the active reservation sitting on an
// occupied spot.  It is used by the admin spot view to show who is
// parked where and for how long.
type OccupantDetail struct {
    ReservationID uint64  `json:"reservation_id"`
    UserID        uint64  `json:"user_id"`
    UserEmail     string  `json:"user_email"`
    VehicleNumber string  `json:"vehicle_number"`
    StartedAt     *string `json:"started_at"`
}

// ActiveBySpotForLot returns the active reservations of a lot keyed by
// spot id.  Spots without an active reservation are absent from the map.
func (r *ReservationRepo) ActiveBySpotForLot(ctx context.Context, lotID uint64) (map[uint64]OccupantDetail, error) {
    const q = `SELECT r.spot_id, r.id, r.user_id, u.email, r.vehicle_number, r.started_at
               FROM reservations r
               JOIN users u ON u.id = r.user_id
               WHERE r.lot_id = ? AND r.status = 'ACTIVE' AND r.spot_id IS NOT NULL`
    rows, err := r.db.QueryContext(ctx, q, lotID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64]OccupantDetail)
    for rows.Next() {
        var spotID uint64
        var d OccupantDetail
        var startedAt sql.NullTime
        if err := rows.Scan(&spotID, &d.ReservationID, &d.UserID, &d.UserEmail, &d.VehicleNumber, &startedAt); err != nil {
            return nil, err
        }
        if startedAt.Valid {
            iso := startedAt.Time.UTC().Format(time.RFC3339)
            d.StartedAt = &iso
        }
        out[spotID] = d
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
