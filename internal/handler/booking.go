package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adhamaliv/event-seat-booking/internal/queue"
	"github.com/adhamaliv/event-seat-booking/internal/repository"
	publisher "github.com/adhamaliv/event-seat-booking/internal/service"
)

// holdTTL is how long a seat selection stays reserved before checkout.
const holdTTL = 5 * time.Minute

// BookingHandler coordinates the checkout flow: seat holds, the booking
// transaction itself and the back-office booking reads. Buyers are
// anonymous; holds and bookings are correlated by token and contact
// details rather than accounts. Every write runs inside a single
// transaction so a batch either books completely or not at all.
type BookingHandler struct {
	Events   *repository.EventRepo
	Seats    *repository.SeatRepo
	Holds    *repository.SeatHoldRepo
	Bookings *repository.BookingRepo
	Settings *repository.SettingsCache
}

func NewBookingHandler(events *repository.EventRepo, seats *repository.SeatRepo, holds *repository.SeatHoldRepo, bookings *repository.BookingRepo, settings *repository.SettingsCache) *BookingHandler {
	if events == nil || seats == nil || holds == nil || bookings == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{Events: events, Seats: seats, Holds: holds, Bookings: bookings, Settings: settings}
}

type createBookingRequest struct {
	EventID       uint64   `json:"event_id"`
	SeatIDs       []uint64 `json:"seat_ids"`
	CustomerName  string   `json:"customer_name"`
	CustomerPhone string   `json:"customer_phone"`
	CustomerEmail *string  `json:"customer_email,omitempty"`
	HoldToken     string   `json:"hold_token,omitempty"`
}

// CreateBooking handles POST /v1/bookings.  The entire seat batch is
// booked atomically: the candidate rows are locked, re-checked and
// conditionally flipped inside one transaction, and any unavailable seat
// rolls the whole batch back. The total is always computed from stored
// seat prices; nothing in the request body can influence it.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.CustomerName = strings.TrimSpace(body.CustomerName)
	body.CustomerPhone = strings.TrimSpace(body.CustomerPhone)
	if body.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	if body.CustomerName == "" || body.CustomerPhone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_name and customer_phone are required"})
	}
	unique := dedupeSeatIDs(body.SeatIDs)
	if len(unique) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}

	ctx := c.Request().Context()
	ev, err := h.Events.GetByID(ctx, body.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Holds.ExpireHoldsTx(ctx, tx, body.EventID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cleanup expired holds"})
	}

	// Lock the candidate rows and re-check availability under the lock.
	available, err := h.Seats.FilterAvailableTx(ctx, tx, body.EventID, unique, body.HoldToken)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check seat availability"})
	}
	if len(available) != len(unique) {
		return seatConflict(c, &repository.SeatConflictError{Unavailable: missingSeatIDs(unique, available)})
	}

	// Conditional flip; a count below the batch size means a seat slipped
	// away despite the locks, and the whole batch rolls back.
	affected, err := h.Seats.MarkBookedTx(ctx, tx, body.EventID, unique)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to book seats"})
	}
	if affected != int64(len(unique)) {
		// Roll back first, then re-read availability outside the
		// transaction to report the seats that are actually gone.
		_ = tx.Rollback()
		conflict := &repository.SeatConflictError{Unavailable: unique}
		if still, rerr := h.Seats.FilterAvailable(ctx, body.EventID, unique, body.HoldToken); rerr == nil {
			conflict.Unavailable = missingSeatIDs(unique, still)
		}
		return seatConflict(c, conflict)
	}

	var total uint32
	for _, s := range available {
		total += s.PriceCents
	}

	booking := &repository.Booking{
		EventID:          body.EventID,
		CustomerName:     body.CustomerName,
		CustomerPhone:    body.CustomerPhone,
		CustomerEmail:    body.CustomerEmail,
		TotalAmountCents: total,
		Status:           "CONFIRMED",
	}
	if err := h.Bookings.CreateTx(ctx, tx, booking); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	seats := make([]repository.BookingSeat, 0, len(available))
	for _, s := range available {
		seats = append(seats, repository.BookingSeat{
			BookingID:  booking.ID,
			SeatID:     s.ID,
			PriceCents: s.PriceCents,
		})
	}
	if err := h.Bookings.CreateSeatsBulkTx(ctx, tx, seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking seats"})
	}

	if body.HoldToken != "" {
		if _, err := h.Holds.DeleteByTokenTx(ctx, tx, body.EventID, body.HoldToken); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release holds"})
		}
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	h.publishCreated(booking, ev, available)

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":         booking.ID,
		"status":             booking.Status,
		"total_amount_cents": total,
	})
}

// publishCreated emits the booking.created event in the background.
// Failures are logged by the publisher and otherwise ignored; the
// booking is already committed.
func (h *BookingHandler) publishCreated(b *repository.Booking, ev *repository.Event, seats []repository.Seat) {
	labels := make([]string, 0, len(seats))
	for _, s := range seats {
		labels = append(labels, fmt.Sprintf("%s-%s%d", s.Section, s.RowLabel, s.SeatNumber))
	}
	currency := "SAR"
	if h.Settings != nil {
		if v, err := h.Settings.Get(context.Background(), "currency"); err == nil {
			currency = v
		}
	}
	evt := queue.BookingCreatedEvent{
		BookingID:        b.ID,
		EventID:          ev.ID,
		EventTitle:       ev.Title,
		Venue:            ev.Venue,
		StartsAt:         ev.StartsAt.UTC().Format(time.RFC3339),
		CustomerName:     b.CustomerName,
		CustomerPhone:    b.CustomerPhone,
		SeatLabels:       labels,
		TotalAmountCents: b.TotalAmountCents,
		Currency:         currency,
		CreatedAt:        b.CreatedAt.UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = publisher.PublishBookingCreated(ctx, evt)
	}()
}

// seatConflict renders a seat conflict as the 400 payload clients use to
// re-prompt seat selection.
func seatConflict(c echo.Context, conflict *repository.SeatConflictError) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error":                "some seats are unavailable",
		"unavailable_seat_ids": conflict.Unavailable,
	})
}

// missingSeatIDs returns the requested ids absent from the available set.
func missingSeatIDs(requested []uint64, available []repository.Seat) []uint64 {
	have := make(map[uint64]struct{}, len(available))
	for _, s := range available {
		have[s.ID] = struct{}{}
	}
	missing := make([]uint64, 0, len(requested)-len(available))
	for _, id := range requested {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

type holdRequest struct {
	SeatIDs   []uint64 `json:"seat_ids"`
	HoldToken string   `json:"hold_token,omitempty"`
}

// HoldSeats handles POST /v1/events/:id/hold.  It reserves a seat
// selection for five minutes and returns a token identifying the hold.
// Seats that are booked or held under another live token make the whole
// request fail with the offending ids.
func (h *BookingHandler) HoldSeats(c echo.Context) error {
	eventID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body holdRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	unique := dedupeSeatIDs(body.SeatIDs)
	if len(unique) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}

	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Holds.ExpireHoldsTx(ctx, tx, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cleanup expired holds"})
	}
	available, err := h.Seats.FilterAvailableTx(ctx, tx, eventID, unique, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check seat availability"})
	}
	if len(available) != len(unique) {
		return seatConflict(c, &repository.SeatConflictError{Unavailable: missingSeatIDs(unique, available)})
	}

	token, err := repository.NewHoldToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate hold token"})
	}
	expiresAt := time.Now().UTC().Add(holdTTL)
	holds := repository.GenerateHoldRecords(eventID, unique, token, expiresAt)
	if err := h.Holds.CreateMultipleTx(ctx, tx, holds); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create holds"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"hold_token": token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"seat_ids":   unique,
	})
}

// ReleaseHolds handles DELETE /v1/events/:id/hold.  It releases every
// hold under the supplied token and reports how many seats were freed.
// An unknown or expired token releases nothing and still succeeds.
func (h *BookingHandler) ReleaseHolds(c echo.Context) error {
	eventID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body holdRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.HoldToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hold_token is required"})
	}

	ctx := c.Request().Context()
	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	seatIDs, err := h.Holds.DeleteByTokenTx(ctx, tx, eventID, body.HoldToken)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release holds"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"released": len(seatIDs)})
}

// GetBooking handles GET /v1/admin/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// ListEventBookings handles GET /v1/admin/events/:id/bookings.
func (h *BookingHandler) ListEventBookings(c echo.Context) error {
	eventID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items, err := h.Bookings.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CancelBooking handles POST /v1/admin/bookings/:id/cancel.  Cancellation
// flips the booking to CANCELLED and releases its seats back to the pool.
// It is always permitted regardless of event start time, and cancelling
// an already cancelled booking is a no-op success.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	status, seatIDs, err := h.Bookings.GetForCancelTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if status == "CANCELLED" {
		return c.JSON(http.StatusOK, echo.Map{"status": status, "released": 0})
	}

	if err := h.Bookings.SetStatusTx(ctx, tx, id, "CANCELLED"); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	released := int64(0)
	if len(seatIDs) > 0 {
		released, err = h.Seats.MarkAvailableTx(ctx, tx, seatIDs)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release seats"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"status": "CANCELLED", "released": released})
}
