package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestSpotLabel(t *testing.T) {
	cases := []struct {
		seq  uint32
		want string
	}{
		{1, "S001"},
		{7, "S007"},
		{42, "S042"},
		{999, "S999"},
		// counters past three digits keep growing instead of wrapping
		{1000, "S1000"},
		{12345, "S12345"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, SpotLabel(tc.seq))
	}
}

func newMockTx(t *testing.T) (*sql.Tx, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return tx, mock
}

func TestShrinkTxRemovesOnlyAvailableSpots(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewSpotRepo(nil)

	// the DELETE is guarded by status = 'A'; three requested, only two
	// Available rows matched, so two are removed
	mock.ExpectExec(regexp.QuoteMeta("WHERE lot_id = ? AND status = 'A'")).
		WithArgs(2, 3).WillReturnResult(sqlmock.NewResult(0, 2))

	removed, err := repo.ShrinkTx(context.Background(), tx, 2, 3)
	require.NoError(t, err)
	require.Equal(t, uint32(2), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShrinkTxZeroExcessIsNoOp(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewSpotRepo(nil)

	removed, err := repo.ShrinkTx(context.Background(), tx, 2, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0), removed)
	// no statement was expected or executed
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionTxBuildsLabelsFromSequence(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewSpotRepo(nil)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO parking_spots (lot_id, label, status) VALUES (?, ?, 'A'),(?, ?, 'A'),(?, ?, 'A')")).
		WithArgs(2, "S005", 2, "S006", 2, "S007").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.ProvisionTx(context.Background(), tx, 2, 5, 3))
	require.NoError(t, mock.ExpectationsWereMet())
}
