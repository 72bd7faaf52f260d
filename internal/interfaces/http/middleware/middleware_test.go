package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/bookwell-inc/bookwell/internal/shared/constants"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(mw...)
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(constants.ContextKeyRequestID))
	})
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return engine
}

func get(engine *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	engine := newEngine(RequestID())

	w := get(engine, "/ping", map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = get(engine, "/ping", nil)
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	engine := newEngine(RequestID(), Logger(logger.NewNop()), Recovery(logger.NewNop()))

	w := get(engine, "/panic", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rl := NewRateLimiter(client, 2, time.Minute, logger.NewNop())
	engine := newEngine(rl.Limit())

	assert.Equal(t, http.StatusOK, get(engine, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, get(engine, "/ping", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(engine, "/ping", nil).Code)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	rl := NewRateLimiter(client, 1, time.Minute, logger.NewNop())
	engine := newEngine(rl.Limit())

	assert.Equal(t, http.StatusOK, get(engine, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, get(engine, "/ping", nil).Code)
}

func TestCORS(t *testing.T) {
	engine := newEngine(CORS([]string{"https://agenda.example.com"}))

	w := get(engine, "/ping", map[string]string{"Origin": "https://agenda.example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://agenda.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(engine, "/ping", map[string]string{"Origin": "https://evil.example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://agenda.example.com")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestSecurityHeaders(t *testing.T) {
	w := get(newEngine(SecurityHeaders()), "/ping", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
