package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apphttp "linkos_backend/internal/http"
	"linkos_backend/platform/httpkit"
	"linkos_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubConfig struct{}

func (stubConfig) GetHTTPAddr() string        { return ":0" }
func (stubConfig) GetCORSAllowAll() bool      { return false }
func (stubConfig) GetCORSOrigins() []string   { return []string{"http://localhost:4200"} }
func (stubConfig) GetCORSAllowCreds() bool    { return true }
func (stubConfig) GetRateLimitPerMinute() int { return 0 }
func (stubConfig) GetJWTAccessSecret() string { return testSecret }

type stubHealth struct{ err error }

func (h stubHealth) Ping(context.Context) error { return h.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": httpkit.GetIdentity(c).UserID()})
	})
	ctx.Admin.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

func newTestEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  stubConfig{},
		Logger:  logger.Discard(),
		Health:  health,
		Modules: []apphttp.Module{echoModule{}},
	})
}

func signToken(t *testing.T, subject string, roles ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   subject,
		"type":  "access",
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doRequest(engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(newTestEngine(stubHealth{}), "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = doRequest(newTestEngine(stubHealth{err: errors.New("db down")}), "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine := newTestEngine(nil)

	assert.Equal(t, http.StatusUnauthorized, doRequest(engine, "/api/v1/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(engine, "/api/v1/whoami", "garbage").Code)

	rec := doRequest(engine, "/api/v1/whoami", signToken(t, "user-42"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-42")
}

func TestAdminRoutesRequireRole(t *testing.T) {
	engine := newTestEngine(nil)

	assert.Equal(t, http.StatusForbidden, doRequest(engine, "/api/v1/admin/ping", signToken(t, "user-1")).Code)
	assert.Equal(t, http.StatusNoContent, doRequest(engine, "/api/v1/admin/ping", signToken(t, "user-1", httpkit.RoleAdmin)).Code)
}
