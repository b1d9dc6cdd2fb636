package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHoldMock(t *testing.T) (*SeatHoldRepo, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSeatHoldRepo(db), db, mock
}

func TestNewHoldToken(t *testing.T) {
	a, err := NewHoldToken()
	require.NoError(t, err)
	b, err := NewHoldToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestExpireHoldsTx(t *testing.T) {
	repo, db, mock := newHoldMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM seat_holds").
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.ExpireHoldsTx(context.Background(), tx, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByTokenTxReturnsReleasedSeats(t *testing.T) {
	repo, db, mock := newHoldMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seat_id FROM seat_holds").
		WithArgs(uint64(1), "tok").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(10).AddRow(11))
	mock.ExpectExec("DELETE FROM seat_holds").
		WithArgs(uint64(1), "tok").
		WillReturnResult(sqlmock.NewResult(0, 2))

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	ids, err := repo.DeleteByTokenTx(context.Background(), tx, 1, "tok")
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 11}, ids)
}

func TestDeleteByTokenTxUnknownToken(t *testing.T) {
	repo, db, mock := newHoldMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seat_id FROM seat_holds").
		WithArgs(uint64(1), "nope").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}))

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	ids, err := repo.DeleteByTokenTx(context.Background(), tx, 1, "nope")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGenerateHoldRecordsShareToken(t *testing.T) {
	expires := time.Now().UTC().Add(5 * time.Minute)
	holds := GenerateHoldRecords(1, []uint64{10, 11, 12}, "tok", expires)
	require.Len(t, holds, 3)
	for _, h := range holds {
		assert.Equal(t, uint64(1), h.EventID)
		assert.Equal(t, "tok", h.HoldToken)
		assert.Equal(t, expires, h.ExpiresAt)
	}
}
