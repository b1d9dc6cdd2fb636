package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*SeatRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSeatRepo(db), mock
}

func TestMarkBookedTxFlipsAllSeats(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE seats SET is_booked = 1").
		WithArgs(uint64(1), uint64(10), uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	tx, err := repo.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	n, err := repo.MarkBookedTx(context.Background(), tx, 1, []uint64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkBookedTxReportsShortfall(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	// One of the two seats was already booked; the conditional update
	// leaves it alone and the count comes back short.
	mock.ExpectExec("UPDATE seats SET is_booked = 1").
		WithArgs(uint64(1), uint64(10), uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := repo.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	n, err := repo.MarkBookedTx(context.Background(), tx, 1, []uint64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMarkAvailableTxIsIdempotent(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE seats SET is_booked = 0").
		WithArgs(uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := repo.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	n, err := repo.MarkAvailableTx(context.Background(), tx, []uint64{10})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestUpdateCategoryPriceTxScopesToEventAndTier(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE seats SET price_cents").
		WithArgs(uint32(25000), uint64(3), "GOLD").
		WillReturnResult(sqlmock.NewResult(0, 350))

	tx, err := repo.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	n, err := repo.UpdateCategoryPriceTx(context.Background(), tx, 3, "GOLD", 25000)
	require.NoError(t, err)
	assert.Equal(t, int64(350), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryPricesEmptyEvent(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT DISTINCT category, price_cents FROM seats").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"category", "price_cents"}))

	prices, err := repo.CategoryPrices(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, prices)
	assert.Empty(t, prices)
}

func TestFilterAvailableTxLocksAndFilters(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "event_id", "section", "row_label", "seat_number", "category", "price_cents"}).
		AddRow(10, 1, "A", "A", 1, "VVIP", 50000).
		AddRow(11, 1, "A", "A", 2, "VVIP", 50000)
	// Seat 12 is booked or held elsewhere and never comes back.
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("tok", uint64(1), uint64(10), uint64(11), uint64(12)).
		WillReturnRows(rows)

	tx, err := repo.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	seats, err := repo.FilterAvailableTx(context.Background(), tx, 1, []uint64{10, 11, 12}, "tok")
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, uint64(10), seats[0].ID)
	assert.Equal(t, uint32(50000), seats[0].PriceCents)
}

func TestFilterAvailableReadsWithoutTransaction(t *testing.T) {
	repo, mock := newMock(t)
	// No Begin: the lock-free variant queries the pool directly.
	mock.ExpectQuery("LEFT JOIN seat_holds").
		WithArgs("", uint64(1), uint64(10), uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "section", "row_label", "seat_number", "category", "price_cents"}).
			AddRow(10, 1, "A", "A", 1, "VVIP", 50000))

	seats, err := repo.FilterAvailable(context.Background(), 1, []uint64{10, 11}, "")
	require.NoError(t, err)
	require.Len(t, seats, 1)
	assert.Equal(t, uint64(10), seats[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListWithStatusOrdersByGridPosition(t *testing.T) {
	repo, mock := newMock(t)
	// Row 27 carries label AA; position ordering must keep it after Z,
	// not between A and B as lexical label ordering would.
	mock.ExpectQuery("ORDER BY s.section, s.pos_y, s.pos_x").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_id", "section", "row_label", "seat_number", "category",
			"price_cents", "is_booked", "pos_x", "pos_y", "status",
		}).
			AddRow(1, 1, "C", "Z", 1, "GOLD", 5000, false, 0, 25, "AVAILABLE").
			AddRow(2, 1, "C", "AA", 1, "GOLD", 5000, true, 0, 26, "BOOKED"))

	seats, err := repo.ListWithStatus(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, "Z", seats[0].RowLabel)
	assert.Equal(t, "AA", seats[1].RowLabel)
	assert.Equal(t, "BOOKED", seats[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterAvailableTxEmptyInput(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	tx, err := repo.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	seats, err := repo.FilterAvailableTx(context.Background(), tx, 1, nil, "")
	require.NoError(t, err)
	assert.Empty(t, seats)
}
