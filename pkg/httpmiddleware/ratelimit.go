package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the maximum number of requests allowed per window.
	Max int
	// Window is the duration of each sliding window.
	Window time.Duration
	// KeyFunc extracts the rate limit key from a request. Defaults to the
	// client IP.
	KeyFunc func(*http.Request) string
}

// window tracks request counts across two adjacent windows so the effective
// rate slides instead of resetting on a boundary.
type window struct {
	prevCount float64
	currCount float64
	currStart time.Time
}

type rateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	clients map[string]*window
}

// count returns the weighted request count for w at time now, rolling the
// window forward first. Caller holds the lock.
func (rl *rateLimiter) count(w *window, now time.Time) float64 {
	elapsed := now.Sub(w.currStart)
	for elapsed >= rl.cfg.Window {
		w.prevCount = w.currCount
		w.currCount = 0
		w.currStart = w.currStart.Add(rl.cfg.Window)
		elapsed -= rl.cfg.Window
		if w.prevCount == 0 {
			// Both windows idle: snap to now.
			w.currStart = now
			break
		}
	}
	prevWeight := 1 - float64(now.Sub(w.currStart))/float64(rl.cfg.Window)
	return w.prevCount*prevWeight + w.currCount
}

func (rl *rateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[key]
	if !ok {
		w = &window{currStart: now}
		rl.clients[key] = w
	}
	if rl.count(w, now) >= float64(rl.cfg.Max) {
		return false
	}
	w.currCount++
	return true
}

// cleanup drops clients idle for at least two windows. An idle client's
// window start is only advanced by its own requests, so a stale start means
// no recent traffic and the entry can go.
func (rl *rateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.clients {
		if now.Sub(w.currStart) >= 2*rl.cfg.Window {
			delete(rl.clients, key)
		}
	}
}

// RateLimit returns a sliding window rate limiting middleware and starts a
// background cleanup goroutine bound to ctx.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	rl := &rateLimiter{cfg: cfg, clients: make(map[string]*window)}

	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.cleanup(now)
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(cfg.KeyFunc(r), time.Now()) {
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
