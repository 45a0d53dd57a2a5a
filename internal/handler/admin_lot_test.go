package handler

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/parkwise/parking-reservation/internal/repository"
)

func newMockAdminHandler(t *testing.T) (*AdminHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewAdminHandler(
		repository.NewLotRepo(db),
		repository.NewSpotRepo(db),
		repository.NewReservationRepo(db),
		repository.NewUserRepo(db),
	)
	return h, mock
}

func TestDeleteLotWithOccupiedSpotChangesNothing(t *testing.T) {
	h, mock := newMockAdminHandler(t)

	mock.ExpectBegin()
	// one spot still occupied: the guard fires before any DELETE
	mock.ExpectQuery(regexp.QuoteMeta("AND status = 'O' FOR UPDATE")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	c, rec := newTestContext(http.MethodDelete, "/v1/lots/2", "")
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.DeleteLot(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "occupied")
	// no DELETE was expected; the lot and its spots stay as they are
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLotEmptySucceeds(t *testing.T) {
	h, mock := newMockAdminHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("AND status = 'O' FOR UPDATE")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM parking_lots WHERE id = ?")).
		WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newTestContext(http.MethodDelete, "/v1/lots/2", "")
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.DeleteLot(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLotShrinkStopsAtOccupiedSpots(t *testing.T) {
	h, mock := newMockAdminHandler(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ? FOR UPDATE")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{
		"id", "name", "address", "postal_code", "price_per_hour",
		"max_spots", "next_spot_seq", "created_at", "updated_at",
	}).AddRow(2, "Central Garage", "1 Main St", "560001", 20.0, 5, 6, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM parking_spots WHERE lot_id = ? FOR UPDATE")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	// capacity drops 5 -> 2, but only 2 spots are Available: the guarded
	// DELETE removes those and leaves the occupied ones alone
	mock.ExpectExec(regexp.QuoteMeta("WHERE lot_id = ? AND status = 'A'")).
		WithArgs(2, 3).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_lots")).
		WithArgs("Central Garage", "1 Main St", "560001", 20.0, 2, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newTestContext(http.MethodPut, "/v1/lots/2", `{"max_spots":2}`)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.UpdateLot(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"spots_removed":2`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLotGrowProvisionsNewLabels(t *testing.T) {
	h, mock := newMockAdminHandler(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ? FOR UPDATE")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{
		"id", "name", "address", "postal_code", "price_per_hour",
		"max_spots", "next_spot_seq", "created_at", "updated_at",
	}).AddRow(2, "Central Garage", "1 Main St", "560001", 20.0, 3, 6, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM parking_spots WHERE lot_id = ? FOR UPDATE")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	// labels continue from the monotonic counter, never from max(label)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT next_spot_seq FROM parking_lots WHERE id = ? FOR UPDATE")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"next_spot_seq"}).AddRow(6))
	mock.ExpectExec(regexp.QuoteMeta("SET next_spot_seq = next_spot_seq + ?")).
		WithArgs(2, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO parking_spots")).
		WithArgs(2, "S006", 2, "S007").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_lots")).
		WithArgs("Central Garage", "1 Main St", "560001", 20.0, 5, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newTestContext(http.MethodPut, "/v1/lots/2", `{"max_spots":5}`)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.UpdateLot(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"max_spots":5`)
	require.NoError(t, mock.ExpectationsWereMet())
}
