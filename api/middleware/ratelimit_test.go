package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/feichai0017/document-condenser/pkg/logger"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func hit(r http.Handler, forwarded string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(1, 2, logger.NewNop())
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }
	r := limitedRouter(rl)

	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1, 172.16.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1"))

	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.2"), "other clients have their own bucket")

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1"), "bucket refills")
}

func TestRateLimiter_FallsBackToClientIP(t *testing.T) {
	rl := NewRateLimiter(0, 1, logger.NewNop())
	r := limitedRouter(rl)

	assert.Equal(t, http.StatusNoContent, hit(r, ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, ""))
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1, logger.NewNop())
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	rl.allow("a")
	now = now.Add(2 * idleClientTTL)
	rl.allow("b")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.clients, "a")
	assert.Contains(t, rl.clients, "b")
}
