package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adhamaliv/event-seat-booking/internal/catalog"
	"github.com/adhamaliv/event-seat-booking/internal/repository"
)

// PublicHandler serves the storefront read endpoints: event browsing, the
// seat map and tier pricing. No authentication; these routes sit behind
// the response cache and the rate limiter instead.
type PublicHandler struct {
	Events   *repository.EventRepo
	Seats    *repository.SeatRepo
	Settings *repository.SettingsCache
}

func NewPublicHandler(events *repository.EventRepo, seats *repository.SeatRepo, settings *repository.SettingsCache) *PublicHandler {
	if events == nil || seats == nil || settings == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Events: events, Seats: seats, Settings: settings}
}

// ListEvents handles GET /v1/events with optional search, category and
// venue filters plus pagination.
func (h *PublicHandler) ListEvents(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	f := repository.EventFilter{
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Category: strings.TrimSpace(c.QueryParam("category")),
		Venue:    strings.TrimSpace(c.QueryParam("venue")),
		Limit:    ps,
		Offset:   (page - 1) * ps,
	}

	items, total, err := h.Events.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}

// GetEvent handles GET /v1/events/:id.
func (h *PublicHandler) GetEvent(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, ev)
}

// sectionSeats groups one section's seats for the seat map response.
type sectionSeats struct {
	Section string                  `json:"section"`
	Seats   []repository.SeatStatus `json:"seats"`
}

// SeatMap handles GET /v1/events/:id/seats.  Seats come back grouped by
// section in layout order with derived AVAILABLE/HELD/BOOKED statuses.
// An event whose catalog has not been populated yet returns empty
// sections rather than 404.
func (h *PublicHandler) SeatMap(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	seats, err := h.Seats.ListWithStatus(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}

	grouped := make(map[string][]repository.SeatStatus)
	for _, s := range seats {
		grouped[s.Section] = append(grouped[s.Section], s)
	}
	sections := make([]sectionSeats, 0, len(grouped))
	for _, sec := range catalog.Layout() {
		if ss, ok := grouped[sec.Name]; ok {
			sections = append(sections, sectionSeats{Section: sec.Name, Seats: ss})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"event_id": id,
		"sections": sections,
		"total":    len(seats),
	})
}

// tierPrice is one entry of the pricing response, ordered by tier rank.
type tierPrice struct {
	Category   string `json:"category"`
	Label      string `json:"label"`
	PriceCents uint32 `json:"price_cents"`
}

// Pricing handles GET /v1/events/:id/pricing.  The price list is derived
// from the event's seats; an unpopulated event yields an empty list.
func (h *PublicHandler) Pricing(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	prices, err := h.Seats.CategoryPrices(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load pricing"})
	}

	tiers := make([]tierPrice, 0, len(prices))
	for _, cat := range catalog.All() {
		if p, ok := prices[string(cat)]; ok {
			tiers = append(tiers, tierPrice{
				Category:   string(cat),
				Label:      catalog.Info(cat).Label,
				PriceCents: p,
			})
		}
	}

	currency, err := h.Settings.Get(ctx, "currency")
	if err != nil {
		currency = "SAR"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id": id,
		"currency": currency,
		"tiers":    tiers,
	})
}

// Currency handles GET /v1/settings/currency, the one public setting the
// storefront needs before rendering prices.
func (h *PublicHandler) Currency(c echo.Context) error {
	currency, err := h.Settings.Get(c.Request().Context(), "currency")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load settings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"currency": currency})
}
