package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"session-cache/internal/cache"
	"session-cache/internal/config"
	"session-cache/internal/ratelimit"
	"session-cache/internal/session"
	"session-cache/pkg/logger"
)

func setupMiddlewareRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	return router
}

func pingAs(router *gin.Engine, apiKey, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/ping", nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestRateLimitMiddleware_SharedBudget(t *testing.T) {
	client := cache.NewClient(cache.NewMemoryStore(nil))
	limiter := ratelimit.NewLimiter(client, logger.NewLogger(), nil)
	router := setupMiddlewareRouter(RateLimitMiddleware(limiter, 3, time.Minute))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, pingAs(router, "key-1", "").Code)
	}

	w := pingAs(router, "key-1", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var errResp session.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.Equal(t, "rate_limit_exceeded", errResp.Error)

	// A different API key has its own budget
	assert.Equal(t, http.StatusOK, pingAs(router, "key-2", "").Code)
}

func TestRateLimitMiddleware_FallsBackToClientIP(t *testing.T) {
	client := cache.NewClient(cache.NewMemoryStore(nil))
	limiter := ratelimit.NewLimiter(client, logger.NewLogger(), nil)
	router := setupMiddlewareRouter(RateLimitMiddleware(limiter, 1, time.Minute))

	assert.Equal(t, http.StatusOK, pingAs(router, "", "10.1.1.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, pingAs(router, "", "10.1.1.1:1000").Code)

	assert.Equal(t, http.StatusOK, pingAs(router, "", "10.1.1.2:1000").Code)
}

func TestRateLimitMiddleware_FailOpen(t *testing.T) {
	limiter := ratelimit.NewLimiter(cache.NewClient(nil), logger.NewLogger(), nil)
	router := setupMiddlewareRouter(RateLimitMiddleware(limiter, 1, time.Minute))

	// Without a reachable cache every request is admitted
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, pingAs(router, "key-1", "").Code)
	}
}

func TestLocalRateLimitMiddleware(t *testing.T) {
	router := setupMiddlewareRouter(LocalRateLimitMiddleware(2))

	assert.Equal(t, http.StatusOK, pingAs(router, "", "203.0.113.9:4000").Code)
	assert.Equal(t, http.StatusOK, pingAs(router, "", "203.0.113.9:4000").Code)
	assert.Equal(t, http.StatusTooManyRequests, pingAs(router, "", "203.0.113.9:4000").Code)

	// Another client IP is unaffected
	assert.Equal(t, http.StatusOK, pingAs(router, "", "203.0.113.10:4000").Code)
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{EnableAuthentication: true, APIKey: "secret"}
	router := setupMiddlewareRouter(AuthMiddleware(cfg))

	assert.Equal(t, http.StatusUnauthorized, pingAs(router, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, pingAs(router, "wrong", "").Code)
	assert.Equal(t, http.StatusOK, pingAs(router, "secret", "").Code)

	// The key may also arrive as a query parameter
	req := httptest.NewRequest("GET", "/ping?api_key=secret", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	cfg := &config.Config{EnableAuthentication: false}
	router := setupMiddlewareRouter(AuthMiddleware(cfg))

	assert.Equal(t, http.StatusOK, pingAs(router, "", "").Code)
}

func TestTimeoutMiddleware_SetsDeadline(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var hasDeadline bool
	router := gin.New()
	router.Use(TimeoutMiddleware(5 * time.Second))
	router.GET("/ping", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hasDeadline)
}
