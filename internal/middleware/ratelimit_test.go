package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 100, Burst: 10})(okHandler())

	for range 5 {
		rec := serve(handler, httptest.NewRequest(http.MethodPost, "/v1/query", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, serve(handler, httptest.NewRequest(http.MethodPost, "/", nil)).Code)
	}

	rec := serve(handler, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
	assert.Nil(t, body["result"])
	assert.Equal(t, "rate limit exceeded", body["error"])
}

func TestRateLimiter_KeysByIPAndProject(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})(okHandler())

	fromIP := func(ip string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = ip + ":1234"
		return r
	}
	asProject := func(project string) *http.Request {
		r := fromIP("10.0.0.9")
		return r.WithContext(WithProjectID(r.Context(), project))
	}

	require.Equal(t, http.StatusOK, serve(handler, fromIP("10.0.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, fromIP("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, serve(handler, fromIP("10.0.0.2")).Code)

	require.Equal(t, http.StatusOK, serve(handler, asProject("p1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, asProject("p1")).Code)
	assert.Equal(t, http.StatusOK, serve(handler, asProject("p2")).Code, "same address, different project")
}

func TestLimiterSet_SweepsIdleClients(t *testing.T) {
	now := time.Now()
	set := &limiterSet{
		cfg:       RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute},
		clients:   map[string]*clientLimiter{},
		lastSweep: now,
		now:       func() time.Time { return now },
	}

	first := set.get("a")
	assert.Same(t, first, set.get("a"))

	now = now.Add(2 * time.Minute)
	set.get("b")
	assert.Len(t, set.clients, 1)
	assert.NotSame(t, first, set.get("a"))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		xff        string
		want       string
	}{
		{"192.168.1.1:12345", "", "192.168.1.1"},
		{"[::1]:12345", "", "::1"},
		{"10.0.0.1:1234", "203.0.113.50", "10.0.0.1"},
		{"no-port", "", "no-port"},
	}
	for _, tc := range tests {
		t.Run(tc.remoteAddr, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			assert.Equal(t, tc.want, clientIP(r))
		})
	}
}
