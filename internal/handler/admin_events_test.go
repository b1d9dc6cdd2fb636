package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhamaliv/event-seat-booking/internal/catalog"
	"github.com/adhamaliv/event-seat-booking/internal/repository"
)

func newAdminEventTest(t *testing.T) (*AdminEventHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAdminEventHandler(repository.NewEventRepo(db), repository.NewSeatRepo(db)), mock
}

func TestPopulateEventGeneratesCatalog(t *testing.T) {
	h, mock := newAdminEventTest(t)
	expectEventRow(mock, 1)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO seats").
		WillReturnResult(sqlmock.NewResult(0, int64(catalog.TotalSeats())))

	rec := doJSON(t, h.PopulateEvent, http.MethodPost, "/v1/admin/events/1/populate",
		`{"category_prices":{"VVIP":50000,"GOLD":15000}}`, map[string]string{"id": "1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Seats   int  `json:"seats"`
		Created bool `json:"created"`
		Booked  int  `json:"booked"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Created)
	assert.Equal(t, catalog.TotalSeats(), resp.Seats)
	assert.Zero(t, resp.Booked, "demand seeding must be opt-in")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPopulateEventIdempotent(t *testing.T) {
	h, mock := newAdminEventTest(t)
	expectEventRow(mock, 1)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4150))
	// Seats exist: only the provided price is applied, nothing inserted.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE seats SET price_cents").
		WithArgs(uint32(60000), uint64(1), "VVIP").
		WillReturnResult(sqlmock.NewResult(0, 600))
	mock.ExpectCommit()

	rec := doJSON(t, h.PopulateEvent, http.MethodPost, "/v1/admin/events/1/populate",
		`{"category_prices":{"vvip":60000}}`, map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Created bool `json:"created"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPopulateEventRejectsUnknownCategory(t *testing.T) {
	h, mock := newAdminEventTest(t)
	expectEventRow(mock, 1)

	rec := doJSON(t, h.PopulateEvent, http.MethodPost, "/v1/admin/events/1/populate",
		`{"category_prices":{"PREMIUM":1000}}`, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPopulateEventRejectsBadFraction(t *testing.T) {
	h, mock := newAdminEventTest(t)
	expectEventRow(mock, 1)

	rec := doJSON(t, h.PopulateEvent, http.MethodPost, "/v1/admin/events/1/populate",
		`{"booked_fraction":1.5}`, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePricingRunsInOneTransaction(t *testing.T) {
	h, mock := newAdminEventTest(t)
	expectEventRow(mock, 1)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE seats SET price_cents").
		WillReturnResult(sqlmock.NewResult(0, 600))
	mock.ExpectCommit()

	rec := doJSON(t, h.UpdatePricing, http.MethodPut, "/v1/admin/events/1/pricing",
		`{"prices":{"VVIP":55000}}`, map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePricingRequiresPrices(t *testing.T) {
	h, _ := newAdminEventTest(t)
	rec := doJSON(t, h.UpdatePricing, http.MethodPut, "/v1/admin/events/1/pricing",
		`{"prices":{}}`, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
