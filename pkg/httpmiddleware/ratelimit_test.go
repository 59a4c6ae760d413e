package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, remoteAddr string) int {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = remoteAddr
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_AllowsUpToMax(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

	for range 3 {
		assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234"))
	}
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.1:1234"))
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.1:5678"))
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.2:1234"))
}

func TestRateLimit_RetryAfterHeader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, RateLimitConfig{Max: 1, Window: 30 * time.Second})(okHandler())

	doRequest(h, "10.0.0.1:1234")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("X-Client") },
	})(okHandler())

	req1 := httptest.NewRequest(http.MethodPost, "/", nil)
	req1.Header.Set("X-Client", "a")
	rec1 := httptest.NewRecorder()
	h.ServeHTTP(rec1, req1)
	assert.Equal(t, http.StatusOK, rec1.Code)

	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req1)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestSlidingWindow_RollsForward(t *testing.T) {
	rl := &rateLimiter{
		cfg:     RateLimitConfig{Max: 2, Window: time.Minute},
		clients: make(map[string]*window),
	}
	now := time.Now()

	assert.True(t, rl.allow("k", now))
	assert.True(t, rl.allow("k", now))
	assert.False(t, rl.allow("k", now))

	// Deep into the next window the previous window's weight has decayed.
	assert.True(t, rl.allow("k", now.Add(time.Minute+59*time.Second)))
}

func TestCleanup_DropsIdleClients(t *testing.T) {
	rl := &rateLimiter{
		cfg:     RateLimitConfig{Max: 1, Window: time.Minute},
		clients: make(map[string]*window),
	}
	now := time.Now()
	rl.allow("stale", now)

	rl.cleanup(now.Add(3 * time.Minute))
	assert.Empty(t, rl.clients)
}
