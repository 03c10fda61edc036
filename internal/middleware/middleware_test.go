package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw...)
	router.GET("/sessions", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"sessions": []string{}}) })
	router.DELETE("/sessions/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return router
}

type call struct {
	method string
	path   string
	origin string
	ip     string
}

func (c call) do(router http.Handler) *httptest.ResponseRecorder {
	method := c.method
	if method == "" {
		method = http.MethodGet
	}
	path := c.path
	if path == "" {
		path = "/sessions"
	}
	req := httptest.NewRequest(method, path, nil)
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	}
	if c.ip != "" {
		req.RemoteAddr = c.ip + ":5000"
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORSDefaults(t *testing.T) {
	router := newRouter(CORS(DefaultCORSConfig()))

	tests := []struct {
		name       string
		call       call
		wantStatus int
		wantOrigin string
	}{
		{"listing from a browser", call{origin: "http://localhost:5173"}, http.StatusOK, "*"},
		{"preflight for closing a session", call{method: http.MethodOptions, path: "/sessions/sess_x", origin: "http://localhost:5173"}, http.StatusNoContent, "*"},
		{"no origin", call{}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.call.do(router)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSPreflightAllowsTraceHeaders(t *testing.T) {
	router := newRouter(CORS(DefaultCORSConfig()))

	req := httptest.NewRequest(http.MethodOptions, "/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "X-Trace-ID")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Trace-Id")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)

	w = call{origin: "http://localhost:5173"}.do(router)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Trace-Id")
}

func TestCORSRestrictedOrigins(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://terminal.example"}
	router := newRouter(CORS(cfg))

	w := call{origin: "https://terminal.example"}.do(router)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://terminal.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = call{origin: "https://evil.example"}.do(router)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSEmptyOriginsAllowsAny(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = nil
	router := newRouter(CORS(cfg))

	w := call{origin: "https://anywhere.example"}.do(router)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitPerClient(t *testing.T) {
	router := newRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))

	steps := []struct {
		ip   string
		want int
	}{
		{"10.1.0.1", http.StatusOK},
		{"10.1.0.1", http.StatusOK},
		{"10.1.0.2", http.StatusOK},
		{"10.1.0.1", http.StatusTooManyRequests},
		{"10.1.0.2", http.StatusOK},
		{"10.1.0.2", http.StatusTooManyRequests},
	}
	for i, s := range steps {
		w := call{ip: s.ip}.do(router)
		assert.Equal(t, s.want, w.Code, "step %d from %s", i, s.ip)
	}

	w := call{ip: "10.1.0.1"}.do(router)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
}

func TestRateLimitForgetsIdleClients(t *testing.T) {
	router := newRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: 20 * time.Millisecond}))

	require.Equal(t, http.StatusOK, call{ip: "10.2.0.1"}.do(router).Code)
	require.Equal(t, http.StatusTooManyRequests, call{ip: "10.2.0.1"}.do(router).Code)

	time.Sleep(40 * time.Millisecond)

	// Another client's request sweeps the idle entry; the first client
	// starts over with a full bucket.
	require.Equal(t, http.StatusOK, call{ip: "10.2.0.2"}.do(router).Code)
	assert.Equal(t, http.StatusOK, call{ip: "10.2.0.1"}.do(router).Code)
}

func TestGlobalRateLimit(t *testing.T) {
	router := newRouter(GlobalRateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))

	assert.Equal(t, http.StatusOK, call{ip: "10.3.0.1"}.do(router).Code)
	assert.Equal(t, http.StatusOK, call{ip: "10.3.0.2"}.do(router).Code)
	assert.Equal(t, http.StatusTooManyRequests, call{ip: "10.3.0.3"}.do(router).Code)
}

func TestDefaultConfigs(t *testing.T) {
	cors := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, cors.AllowOrigins)
	assert.ElementsMatch(t, []string{"GET", "DELETE", "OPTIONS"}, cors.AllowMethods)
	assert.False(t, cors.AllowCredentials)
	assert.Equal(t, 12*time.Hour, cors.MaxAge)

	rl := DefaultRateLimitConfig()
	assert.Equal(t, 100, rl.RequestsPerSecond)
	assert.Equal(t, 200, rl.Burst)
	assert.Equal(t, 10*time.Minute, rl.IdleTTL)
}

func BenchmarkRateLimit(b *testing.B) {
	router := newRouter(RateLimit(DefaultRateLimitConfig()))
	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	req.RemoteAddr = "10.9.0.1:5000"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
}
