package handler

import (
	"database/sql"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/parkwise/parking-reservation/internal/repository"
)

// newMockCustomerHandler wires a CustomerHandler against a sqlmock
// database so the transactional booking and release flows can be
// exercised end to end without MySQL.
func newMockCustomerHandler(t *testing.T) (*CustomerHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewCustomerHandler(
		repository.NewLotRepo(db),
		repository.NewSpotRepo(db),
		repository.NewReservationRepo(db),
	)
	return h, mock
}

var reservationColumns = []string{
	"id", "spot_id", "user_id", "lot_id", "spot_label", "vehicle_number",
	"started_at", "ended_at", "cost", "status", "created_at", "updated_at",
}

func lotRow() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "name", "address", "postal_code", "price_per_hour",
		"max_spots", "next_spot_seq", "created_at", "updated_at",
	}).AddRow(2, "Central Garage", "1 Main St", "560001", 20.0, 5, 6, now, now)
}

func TestBookAllocatesFirstAvailableSpot(t *testing.T) {
	h, mock := newMockCustomerHandler(t)
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ?")).
		WithArgs(2).WillReturnRows(lotRow())
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = ? AND status = 'ACTIVE'")).
		WithArgs(3).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE lot_id = ? AND status = 'A'")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{
		"id", "lot_id", "label", "status", "created_at", "updated_at",
	}).AddRow(7, 2, "S004", "A", "2025-03-01 09:00:00", "2025-03-01 09:00:00"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WithArgs(7, 3, 2, "S004", "KA-01-AB-1234").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ?")).
		WithArgs(11).WillReturnRows(sqlmock.NewRows(reservationColumns).
		AddRow(11, 7, 3, 2, "S004", "KA-01-AB-1234", started, nil, nil, "ACTIVE", now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_spots SET status = ?")).
		WithArgs("O", 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newTestContext(http.MethodPost, "/v1/lots/2/book", `{"vehicle_number":"KA-01-AB-1234"}`)
	c.Set("user_id", uint64(3))
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.Book(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"spot_label":"S004"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookFullLotCreatesNoReservation(t *testing.T) {
	h, mock := newMockCustomerHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ?")).
		WithArgs(2).WillReturnRows(lotRow())
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = ? AND status = 'ACTIVE'")).
		WithArgs(3).WillReturnError(sql.ErrNoRows)
	// every spot occupied: the allocation query finds nothing
	mock.ExpectQuery(regexp.QuoteMeta("WHERE lot_id = ? AND status = 'A'")).
		WithArgs(2).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	c, rec := newTestContext(http.MethodPost, "/v1/lots/2/book", `{"vehicle_number":"KA-01-AB-1234"}`)
	c.Set("user_id", uint64(3))
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.Book(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "no available spots")
	// no INSERT was expected; a write would have failed the mock
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRejectsSecondActiveReservation(t *testing.T) {
	h, mock := newMockCustomerHandler(t)
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ?")).
		WithArgs(2).WillReturnRows(lotRow())
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = ? AND status = 'ACTIVE'")).
		WithArgs(3).WillReturnRows(sqlmock.NewRows(reservationColumns).
		AddRow(9, 5, 3, 1, "S001", "KA-01-AB-1234", started, nil, nil, "ACTIVE", now, now))
	mock.ExpectRollback()

	c, rec := newTestContext(http.MethodPost, "/v1/lots/2/book", `{"vehicle_number":"KA-01-AB-1234"}`)
	c.Set("user_id", uint64(3))
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.Book(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already have an active reservation")
	require.NoError(t, mock.ExpectationsWereMet())
}

// releaseInfoColumns matches GetForUpdateTx's select list: the
// reservation row plus the lot's hourly price from the LEFT JOIN.
var releaseInfoColumns = append(append([]string{}, reservationColumns...), "price_per_hour")

func TestReleaseComputesFeeAndFreesSpot(t *testing.T) {
	h, mock := newMockCustomerHandler(t)
	started := time.Now().UTC().Add(-30 * time.Minute)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN parking_lots l ON l.id = r.lot_id")).
		WithArgs(11).WillReturnRows(sqlmock.NewRows(releaseInfoColumns).
		AddRow(11, 7, 3, 2, "S004", "KA-01-AB-1234", started, nil, nil, "ACTIVE", now, now, 20.0))
	// half an hour parked still bills the one-hour minimum
	mock.ExpectExec(regexp.QuoteMeta("SET ended_at = UTC_TIMESTAMP(), cost = ?")).
		WithArgs(20.0, 11).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_spots SET status = ?")).
		WithArgs("A", 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newTestContext(http.MethodPost, "/v1/reservations/11/release", "")
	c.Set("user_id", uint64(3))
	c.SetParamNames("id")
	c.SetParamValues("11")

	require.NoError(t, h.Release(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"cost":20`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseAlreadyCompletedLeavesRowUntouched(t *testing.T) {
	h, mock := newMockCustomerHandler(t)
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ended := started.Add(2 * time.Hour)
	cost := 40.0

	mock.ExpectBegin()
	// lot deleted since: spot_id and price come back NULL, but the row
	// still resolves and the status guard answers before price is used
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN parking_lots l ON l.id = r.lot_id")).
		WithArgs(11).WillReturnRows(sqlmock.NewRows(releaseInfoColumns).
		AddRow(11, nil, 3, 2, "S004", "KA-01-AB-1234", started, ended, cost, "COMPLETED", started, ended, nil))
	mock.ExpectRollback()

	c, rec := newTestContext(http.MethodPost, "/v1/reservations/11/release", "")
	c.Set("user_id", uint64(3))
	c.SetParamNames("id")
	c.SetParamValues("11")

	require.NoError(t, h.Release(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already completed")
	// no UPDATE was expected: stored cost and timestamps stay as they are
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseRejectsForeignReservation(t *testing.T) {
	h, mock := newMockCustomerHandler(t)
	started := time.Now().UTC().Add(-time.Hour)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN parking_lots l ON l.id = r.lot_id")).
		WithArgs(11).WillReturnRows(sqlmock.NewRows(releaseInfoColumns).
		AddRow(11, 7, 99, 2, "S004", "KA-01-AB-1234", started, nil, nil, "ACTIVE", now, now, 20.0))
	mock.ExpectRollback()

	c, rec := newTestContext(http.MethodPost, "/v1/reservations/11/release", "")
	c.Set("user_id", uint64(3))
	c.SetParamNames("id")
	c.SetParamValues("11")

	require.NoError(t, h.Release(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
