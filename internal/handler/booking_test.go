package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhamaliv/event-seat-booking/internal/repository"
)

func newBookingTest(t *testing.T) (*BookingHandler, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewBookingHandler(
		repository.NewEventRepo(db),
		repository.NewSeatRepo(db),
		repository.NewSeatHoldRepo(db),
		repository.NewBookingRepo(db),
		nil,
	)
	return h, mock, db
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, h(c))
	return rec
}

func expectEventRow(mock sqlmock.Sqlmock, id uint64) {
	now := time.Now().UTC()
	mock.ExpectQuery("FROM events WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "starts_at", "venue", "category", "image", "created_at", "updated_at",
		}).AddRow(id, "Stadium Night", nil, now.Add(24*time.Hour), "Main Stadium", "concert", nil, now, now))
}

func TestCreateBookingValidation(t *testing.T) {
	h, _, _ := newBookingTest(t)
	cases := []struct {
		name string
		body string
	}{
		{"missing event", `{"seat_ids":[1],"customer_name":"A","customer_phone":"1"}`},
		{"missing contact", `{"event_id":1,"seat_ids":[1]}`},
		{"no seats", `{"event_id":1,"seat_ids":[],"customer_name":"A","customer_phone":"1"}`},
		{"only zero seat ids", `{"event_id":1,"seat_ids":[0,0],"customer_name":"A","customer_phone":"1"}`},
		{"blank name", `{"event_id":1,"seat_ids":[1],"customer_name":"  ","customer_phone":"1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h.CreateBooking, http.MethodPost, "/v1/bookings", tc.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateBookingUnavailableSeats(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	expectEventRow(mock, 1)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM seat_holds").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Only seat 10 is still available; 11 must come back in the conflict payload.
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "section", "row_label", "seat_number", "category", "price_cents"}).
			AddRow(10, 1, "A", "A", 1, "VVIP", 50000))
	mock.ExpectRollback()

	body := `{"event_id":1,"seat_ids":[10,11],"customer_name":"Alice","customer_phone":"+966500000000"}`
	rec := doJSON(t, h.CreateBooking, http.MethodPost, "/v1/bookings", body, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error              string   `json:"error"`
		UnavailableSeatIDs []uint64 `json:"unavailable_seat_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []uint64{11}, resp.UnavailableSeatIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingConflictOnFlip(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	expectEventRow(mock, 1)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM seat_holds").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "section", "row_label", "seat_number", "category", "price_cents"}).
			AddRow(10, 1, "A", "A", 1, "VVIP", 50000).
			AddRow(11, 1, "A", "A", 2, "VVIP", 50000))
	// Conditional update flips only one row: the whole batch must abort.
	mock.ExpectExec("UPDATE seats SET is_booked = 1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()
	// After the rollback the handler re-reads availability to name the
	// seats that are actually gone; only 10 is still free.
	mock.ExpectQuery("LEFT JOIN seat_holds").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "section", "row_label", "seat_number", "category", "price_cents"}).
			AddRow(10, 1, "A", "A", 1, "VVIP", 50000))

	body := `{"event_id":1,"seat_ids":[10,11],"customer_name":"Alice","customer_phone":"+966500000000"}`
	rec := doJSON(t, h.CreateBooking, http.MethodPost, "/v1/bookings", body, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error              string   `json:"error"`
		UnavailableSeatIDs []uint64 `json:"unavailable_seat_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []uint64{11}, resp.UnavailableSeatIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSuccess(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	now := time.Now().UTC()
	expectEventRow(mock, 1)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM seat_holds").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "section", "row_label", "seat_number", "category", "price_cents"}).
			AddRow(10, 1, "D", "C", 1, "GOLD", 5000).
			AddRow(11, 1, "D", "C", 2, "GOLD", 7000))
	mock.ExpectExec("UPDATE seats SET is_booked = 1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO booking_seats").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	body := `{"event_id":1,"seat_ids":[10,11],"customer_name":"Alice","customer_phone":"+966500000000"}`
	rec := doJSON(t, h.CreateBooking, http.MethodPost, "/v1/bookings", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		BookingID        uint64 `json:"booking_id"`
		Status           string `json:"status"`
		TotalAmountCents uint32 `json:"total_amount_cents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(9), resp.BookingID)
	assert.Equal(t, "CONFIRMED", resp.Status)
	// Server-side total: 5000 + 7000, regardless of anything in the request.
	assert.Equal(t, uint32(12000), resp.TotalAmountCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldSeatsValidation(t *testing.T) {
	h, _, _ := newBookingTest(t)
	rec := doJSON(t, h.HoldSeats, http.MethodPost, "/v1/events/1/hold", `{"seat_ids":[]}`, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h.HoldSeats, http.MethodPost, "/v1/events/x/hold", `{"seat_ids":[1]}`, map[string]string{"id": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBookingReleasesSeats(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("CONFIRMED"))
	mock.ExpectQuery("SELECT seat_id FROM booking_seats").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(10).AddRow(11))
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE seats SET is_booked = 0").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	rec := doJSON(t, h.CancelBooking, http.MethodPost, "/v1/admin/bookings/42/cancel", "", map[string]string{"id": "42"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status   string `json:"status"`
		Released int64  `json:"released"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Equal(t, int64(2), resp.Released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingAlreadyCancelledIsNoop(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("CANCELLED"))
	mock.ExpectQuery("SELECT seat_id FROM booking_seats").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}))
	mock.ExpectRollback()

	rec := doJSON(t, h.CancelBooking, http.MethodPost, "/v1/admin/bookings/42/cancel", "", map[string]string{"id": "42"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status   string `json:"status"`
		Released int64  `json:"released"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Zero(t, resp.Released)
}
