package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbis-edu/orbis/internal/log"
)

func TestRateLimiter_Burst(t *testing.T) {
	rl := newRateLimiter(0.0001, 3)

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"), "burst exhausted")

	// Another IP gets its own bucket.
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := newRateLimiter(0.0001, 1)
	handler := rateLimitMiddleware(rl, false, log.NewNop())(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	r := httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil)
	r.RemoteAddr = "192.0.2.1:5000"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{name: "remote addr only", remoteAddr: "192.0.2.1:5000", want: "192.0.2.1"},
		{name: "proxy headers ignored when untrusted", remoteAddr: "192.0.2.1:5000", realIP: "198.51.100.7", want: "192.0.2.1"},
		{name: "x-real-ip when trusted", remoteAddr: "192.0.2.1:5000", realIP: "198.51.100.7", trustProxy: true, want: "198.51.100.7"},
		{name: "x-forwarded-for first entry", remoteAddr: "192.0.2.1:5000", forwarded: "203.0.113.9, 198.51.100.7", trustProxy: true, want: "203.0.113.9"},
		{name: "garbage header falls back", remoteAddr: "192.0.2.1:5000", realIP: "not-an-ip", trustProxy: true, want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(r, tt.trustProxy))
		})
	}
}
