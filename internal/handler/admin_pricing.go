package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adhamaliv/event-seat-booking/internal/repository"
)

type pricingRequest struct {
	Prices map[string]uint32 `json:"prices"`
}

// UpdatePricing handles PUT /v1/admin/events/:id/pricing.  Each tier's
// price is applied with a single UPDATE over the tier's seats, so readers
// never observe a half-repriced tier; all requested tiers run in one
// transaction. Tiers with no seats report zero updated rows.
func (h *AdminEventHandler) UpdatePricing(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body pricingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Prices) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prices is required"})
	}
	prices, msg := parsePrices(body.Prices)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, id); err != nil {
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

	updated := make(map[string]int64, len(prices))
	for cat, cents := range prices {
		n, err := h.Seats.UpdateCategoryPriceTx(ctx, tx, id, string(cat), cents)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update prices"})
		}
		updated[string(cat)] = n
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"event_id": id,
		"updated":  updated,
	})
}
