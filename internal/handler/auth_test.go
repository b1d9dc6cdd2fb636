package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adhamaliv/event-seat-booking/internal/config"
	"github.com/adhamaliv/event-seat-booking/internal/repository"
	"github.com/adhamaliv/event-seat-booking/internal/utils"
)

func newAuthTest(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := &config.Config{
		JWTSecret:    "test-secret",
		AccessTTLMin: 1440,
		BcryptCost:   bcrypt.MinCost,
	}
	return NewAuthHandler(repository.NewAdminRepo(db), cfg), mock
}

func TestSetupForbiddenAfterFirstAdmin(t *testing.T) {
	h, mock := newAuthTest(t)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rec := doJSON(t, h.Setup, http.MethodPost, "/v1/admin/setup",
		`{"username":"second","password":"password123"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSetupRejectsShortPassword(t *testing.T) {
	h, mock := newAuthTest(t)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	rec := doJSON(t, h.Setup, http.MethodPost, "/v1/admin/setup",
		`{"username":"boss","password":"short"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetupCreatesFirstAdmin(t *testing.T) {
	h, mock := newAuthTest(t)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO admins").
		WithArgs("boss", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := doJSON(t, h.Setup, http.MethodPost, "/v1/admin/setup",
		`{"username":"Boss","password":"password123"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func adminRow(t *testing.T, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at", "updated_at"}).
		AddRow(1, "boss", hash, now, now)
}

func TestLoginSuccess(t *testing.T) {
	h, mock := newAuthTest(t)
	mock.ExpectQuery("FROM admins WHERE username").
		WithArgs("boss").
		WillReturnRows(adminRow(t, "password123"))

	rec := doJSON(t, h.Login, http.MethodPost, "/v1/admin/login",
		`{"username":"boss","password":"password123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	h, mock := newAuthTest(t)
	mock.ExpectQuery("FROM admins WHERE username").
		WithArgs("boss").
		WillReturnRows(adminRow(t, "password123"))

	rec := doJSON(t, h.Login, http.MethodPost, "/v1/admin/login",
		`{"username":"boss","password":"wrong-password"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	h, mock := newAuthTest(t)
	mock.ExpectQuery("FROM admins WHERE username").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	rec := doJSON(t, h.Login, http.MethodPost, "/v1/admin/login",
		`{"username":"ghost","password":"whatever"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
