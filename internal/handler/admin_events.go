package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adhamaliv/event-seat-booking/internal/catalog"
	"github.com/adhamaliv/event-seat-booking/internal/repository"
)

// AdminEventHandler implements the back-office event CRUD and the seat
// catalog population endpoints.
type AdminEventHandler struct {
	Events *repository.EventRepo
	Seats  *repository.SeatRepo
}

func NewAdminEventHandler(events *repository.EventRepo, seats *repository.SeatRepo) *AdminEventHandler {
	if events == nil || seats == nil {
		panic("nil repository passed to NewAdminEventHandler")
	}
	return &AdminEventHandler{Events: events, Seats: seats}
}

type eventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	StartsAt    string  `json:"starts_at"`
	Venue       string  `json:"venue"`
	Category    string  `json:"category"`
	Image       *string `json:"image,omitempty"`
}

func (b *eventRequest) toEvent() (*repository.Event, string) {
	b.Title = strings.TrimSpace(b.Title)
	b.Venue = strings.TrimSpace(b.Venue)
	b.Category = strings.TrimSpace(b.Category)
	if b.Title == "" || b.Venue == "" {
		return nil, "title and venue are required"
	}
	startsAt, err := time.Parse(time.RFC3339, b.StartsAt)
	if err != nil {
		return nil, "starts_at must be RFC3339"
	}
	return &repository.Event{
		Title:       b.Title,
		Description: b.Description,
		StartsAt:    startsAt.UTC(),
		Venue:       b.Venue,
		Category:    b.Category,
		Image:       b.Image,
	}, ""
}

// CreateEvent handles POST /v1/admin/events.
func (h *AdminEventHandler) CreateEvent(c echo.Context) error {
	var body eventRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ev, msg := body.toEvent()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Events.Create(c.Request().Context(), ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create event"})
	}
	return c.JSON(http.StatusCreated, ev)
}

// UpdateEvent handles PUT /v1/admin/events/:id.
func (h *AdminEventHandler) UpdateEvent(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body eventRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ev, msg := body.toEvent()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ev.ID = id
	if err := h.Events.Update(c.Request().Context(), ev); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update event"})
	}
	updated, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteEvent handles DELETE /v1/admin/events/:id.  Events with confirmed
// bookings cannot be deleted.
func (h *AdminEventHandler) DeleteEvent(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.Events.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "event has confirmed bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete event"})
	}
	return c.NoContent(http.StatusNoContent)
}

type populateRequest struct {
	CategoryPrices map[string]uint32 `json:"category_prices,omitempty"`
	BookedFraction float64           `json:"booked_fraction,omitempty"`
	Seed           int64             `json:"seed,omitempty"`
}

// parsePrices validates the tier names of a populate/pricing payload.
func parsePrices(raw map[string]uint32) (map[catalog.Category]uint32, string) {
	prices := make(map[catalog.Category]uint32, len(raw))
	for name, cents := range raw {
		cat, err := catalog.Parse(name)
		if err != nil {
			return nil, "unknown category: " + name
		}
		prices[cat] = cents
	}
	return prices, ""
}

// PopulateEvent handles POST /v1/admin/events/:id/populate.  It generates
// the full stadium seat catalog for one event. The operation is
// idempotent: when seats already exist nothing is inserted and only the
// provided tier prices are applied. booked_fraction with a seed runs the
// deterministic demand simulation and is never applied unless requested.
func (h *AdminEventHandler) PopulateEvent(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body populateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	result, errMsg, status := h.populate(c, id, body)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}
	return c.JSON(status, result)
}

// PopulateAll handles POST /v1/admin/events/populate-all, running the
// same population over every event.
func (h *AdminEventHandler) PopulateAll(c echo.Context) error {
	var body populateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	ids, err := h.Events.ListIDs(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	results := make([]echo.Map, 0, len(ids))
	for _, id := range ids {
		result, errMsg, _ := h.populate(c, id, body)
		if errMsg != "" {
			results = append(results, echo.Map{"event_id": id, "error": errMsg})
			continue
		}
		results = append(results, result)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": results})
}

// populate runs catalog generation for one event and returns the response
// payload, or an error message with its HTTP status.
func (h *AdminEventHandler) populate(c echo.Context, eventID uint64, body populateRequest) (echo.Map, string, int) {
	if body.BookedFraction < 0 || body.BookedFraction > 1 {
		return nil, "booked_fraction must be between 0 and 1", http.StatusBadRequest
	}
	prices, msg := parsePrices(body.CategoryPrices)
	if msg != "" {
		return nil, msg, http.StatusBadRequest
	}

	ctx := c.Request().Context()
	count, err := h.Seats.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, "database error", http.StatusInternalServerError
	}
	if count > 0 {
		// Already populated: apply prices in place, never duplicate seats.
		if len(prices) > 0 {
			tx, err := h.Events.DB().BeginTx(ctx, nil)
			if err != nil {
				return nil, "failed to start transaction", http.StatusInternalServerError
			}
			committed := false
			defer func() {
				if !committed {
					_ = tx.Rollback()
				}
			}()
			for cat, cents := range prices {
				if _, err := h.Seats.UpdateCategoryPriceTx(ctx, tx, eventID, string(cat), cents); err != nil {
					return nil, "failed to update prices", http.StatusInternalServerError
				}
			}
			if err := tx.Commit(); err != nil {
				return nil, "failed to commit transaction", http.StatusInternalServerError
			}
			committed = true
		}
		return echo.Map{
			"event_id":       eventID,
			"seats":          count,
			"created":        false,
			"prices_applied": len(prices),
		}, "", http.StatusOK
	}

	seats := catalog.Generate(eventID, prices)
	booked := 0
	if body.BookedFraction > 0 {
		catalog.SeedBooked(seats, body.BookedFraction, body.Seed)
		for _, s := range seats {
			if s.IsBooked {
				booked++
			}
		}
	}
	if err := h.Seats.CreateBulk(ctx, seats); err != nil {
		return nil, "failed to create seats", http.StatusInternalServerError
	}
	return echo.Map{
		"event_id": eventID,
		"seats":    len(seats),
		"created":  true,
		"booked":   booked,
	}, "", http.StatusCreated
}
