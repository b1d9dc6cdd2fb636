package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adhamaliv/event-seat-booking/internal/repository"
)

// SettingsHandler exposes the runtime settings store to the back office.
// Writes go through the Redis-backed cache so storefront reads pick the
// new values up within the cache TTL.
type SettingsHandler struct {
	Settings *repository.SettingRepo
	Cache    *repository.SettingsCache
}

func NewSettingsHandler(settings *repository.SettingRepo, cache *repository.SettingsCache) *SettingsHandler {
	if settings == nil || cache == nil {
		panic("nil dependency passed to NewSettingsHandler")
	}
	return &SettingsHandler{Settings: settings, Cache: cache}
}

// List handles GET /v1/admin/settings.
func (h *SettingsHandler) List(c echo.Context) error {
	all, err := h.Settings.All(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load settings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"settings": all})
}

// Update handles PUT /v1/admin/settings with a flat key/value object.
// Every pair is upserted; unknown keys are allowed so deployments can
// carry their own knobs.
func (h *SettingsHandler) Update(c echo.Context) error {
	var body map[string]string
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one setting is required"})
	}
	ctx := c.Request().Context()
	for k, v := range body {
		k = strings.TrimSpace(k)
		if k == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "setting keys must be non-empty"})
		}
		if err := h.Cache.Set(ctx, k, v); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save settings"})
		}
	}
	all, err := h.Settings.All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load settings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"settings": all})
}

// UpdateOne handles PUT /v1/admin/settings/:key.
func (h *SettingsHandler) UpdateOne(c echo.Context) error {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid setting key"})
	}
	var body struct {
		Value string `json:"value"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Cache.Set(c.Request().Context(), key, body.Value); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save setting"})
	}
	return c.JSON(http.StatusOK, echo.Map{"key": key, "value": body.Value})
}
