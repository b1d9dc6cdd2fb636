package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adhamaliv/event-seat-booking/internal/config"
	"github.com/adhamaliv/event-seat-booking/internal/repository"
	"github.com/adhamaliv/event-seat-booking/internal/utils"
)

// AuthHandler implements back-office authentication. There is no public
// registration: the first admin account is created through the one-shot
// setup endpoint and further accounts are out of scope for the HTTP API.
type AuthHandler struct {
	Admins *repository.AdminRepo
	Cfg    *config.Config
}

func NewAuthHandler(admins *repository.AdminRepo, cfg *config.Config) *AuthHandler {
	if admins == nil || cfg == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Admins: admins, Cfg: cfg}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Setup handles POST /v1/admin/setup.  It creates the first admin account
// and is only open while no admin exists; afterwards it always returns
// 403 so a deployed instance cannot be taken over.
func (h *AuthHandler) Setup(c echo.Context) error {
	ctx := c.Request().Context()
	n, err := h.Admins.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if n > 0 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "setup already completed"})
	}

	var body credentialsRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" || len(body.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and a password of at least 8 characters are required"})
	}

	id, err := h.Admins.Create(ctx, body.Username, body.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create admin"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "username": strings.ToLower(body.Username)})
}

// Login handles POST /v1/admin/login.  On success it returns a signed
// access token valid for the configured TTL (24 hours by default).
// Unknown usernames and wrong passwords produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var body credentialsRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Username) == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	ctx := c.Request().Context()
	admin, err := h.Admins.GetByUsername(ctx, body.Username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !utils.VerifyPassword(admin.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, admin.ID, "ADMIN", h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sign token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":      tok.Token,
		"expires_at": tok.Exp,
		"admin": echo.Map{
			"id":       admin.ID,
			"username": admin.Username,
		},
	})
}
