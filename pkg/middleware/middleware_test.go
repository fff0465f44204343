package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func TestRateLimiter_Allow(t *testing.T) {
	// 120 requests per minute (2 per second) with burst of 1
	rl := NewRateLimiter(120, 1)
	defer rl.Stop()

	limiter := rl.GetLimiter("ip:192.168.1.1")

	assert.True(t, limiter.Allow(), "First request should be allowed")
	assert.False(t, limiter.Allow(), "Second request should be blocked")

	// 0.5 seconds per token
	time.Sleep(600 * time.Millisecond)

	assert.True(t, limiter.Allow(), "Third request should be allowed after waiting")
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	defer rl.Stop()

	rl.GetLimiter("idle")
	rl.GetLimiter("busy").Allow()
	rl.prune()

	assert.Equal(t, 1, rl.size())
	rl.Stop()
	rl.Stop()
}

func TestRateLimitMiddleware(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(2, 1)
	defer rl.Stop()
	handler := rl.RateLimitMiddleware()(okHandler)

	serve := func(remote, userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/functions/generate-report", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if userID != "" {
			c.Set("user_id", userID)
		}
		require.NoError(t, handler(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve("192.168.1.1:1000", ""))
	assert.Equal(t, http.StatusTooManyRequests, serve("192.168.1.1:1001", ""))
	assert.Equal(t, http.StatusOK, serve("192.168.1.2:1000", ""), "other IPs have their own bucket")

	assert.Equal(t, http.StatusOK, serve("192.168.1.1:1002", "user-1"), "users are limited by id, not IP")
	assert.Equal(t, http.StatusTooManyRequests, serve("192.168.1.3:1000", "user-1"))
}

func TestCORS_ConfiguredOrigins(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		allowed bool
	}{
		{"default dev origin", nil, "http://localhost:5173", true},
		{"default rejects unknown", nil, "https://evil.test", false},
		{"configured origin", []string{"https://dashboard.greenledger.io"}, "https://dashboard.greenledger.io", true},
		{"configured replaces defaults", []string{"https://dashboard.greenledger.io"}, "http://localhost:5173", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(middleware.CORSWithConfig(CORSConfig(tt.origins)))
			e.GET("/test", okHandler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORS_ExposesDownloadHeaders(t *testing.T) {
	e := echo.New()
	e.Use(middleware.CORSWithConfig(CORSConfig(nil)))
	e.GET("/functions/download-report", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/functions/download-report", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestSecurityHeaders_DefaultHeaders(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := SecurityHeaders(SecurityHeadersConfig{})(okHandler)(c)
	require.NoError(t, err)

	csp := rec.Header().Get("Content-Security-Policy")
	assert.True(t, strings.HasPrefix(csp, "default-src 'none'"), csp)
	assert.Contains(t, csp, "frame-ancestors 'none'")
	assert.NotContains(t, csp, "'self'")
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Permissions-Policy"), "payment=()")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestSecurityHeaders_Custom(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	cfg := SecurityHeadersConfig{ContentSecurityPolicy: "default-src 'none'"}
	require.NoError(t, SecurityHeaders(cfg)(okHandler)(c))

	assert.Equal(t, "default-src 'none'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
}
