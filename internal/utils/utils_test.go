package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpap-admin-server/internal/config"
	"cpap-admin-server/internal/models"
)

func TestGenerateAndValidateTokens(t *testing.T) {
	cfg := &config.Config{
		JWTSecret:                 "access",
		JWTRefreshSecret:          "refresh",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 24,
	}
	user := &models.User{Role: models.RoleStaff}
	user.ID = "u1"
	now := time.Now()

	pair, err := GenerateTokens(user, cfg, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(24*time.Hour), pair.RefreshExpiresAt, time.Second)

	claims, err := ValidateToken(pair.AccessToken, cfg.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)

	_, err = ValidateToken(pair.AccessToken, cfg.JWTRefreshSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	again, err := GenerateTokens(user, cfg, now)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, again.RefreshToken)
}

func TestExpiredToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "a", JWTRefreshSecret: "r", JWTExpirationMinutes: 1, JWTRefreshExpirationHours: 1}
	user := &models.User{Role: models.RoleAdmin}
	pair, err := GenerateTokens(user, cfg, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = ValidateToken(pair.AccessToken, "a")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

type reading struct {
	IAH    float64 `json:"iahResult" validate:"iah"`
	Method string  `json:"type" validate:"paymethod"`
}

func TestDomainValidators(t *testing.T) {
	assert.NoError(t, Validate(reading{IAH: 32.5, Method: "CNAM"}))

	err := Validate(reading{IAH: 250, Method: "BITCOIN"})
	require.Error(t, err)
	msg := FormatValidationError(err)
	assert.Contains(t, msg, "iahResult failed iah")
	assert.Contains(t, msg, "type failed paymethod")
}

func TestFieldErrors(t *testing.T) {
	err := Validate(reading{IAH: 250, Method: "BITCOIN"})
	fields := FieldErrors(err)
	assert.Equal(t, "must be an apnea-hypopnea index between 0 and 200", fields["iahResult"])
	assert.Equal(t, "must be one of CASH, CHEQUE, TRAITE, CNAM, VIREMENT, MONDAT", fields["type"])

	assert.Nil(t, FieldErrors(assert.AnError))
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestListSendsEmptyArray(t *testing.T) {
	c, w := newTestContext()
	var none []models.Task
	List(c, "Tasks fetched successfully", none)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.JSONEq(t, "[]", string(body["data"]))
	assert.JSONEq(t, "0", string(body["count"]))
}

func TestValidationFailed(t *testing.T) {
	c, w := newTestContext()
	ValidationFailed(c, Validate(reading{IAH: -1, Method: "CNAM"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ResponseData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "iahResult failed iah")
	assert.Contains(t, body.Fields, "iahResult")
	assert.NotContains(t, body.Fields, "type")
}

func TestAttachment(t *testing.T) {
	c, w := newTestContext()
	Attachment(c, "échéancier-2024-06-10.xlsx", "application/octet-stream", []byte("x"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename*=utf-8''")
	assert.Equal(t, "x", w.Body.String())
}
