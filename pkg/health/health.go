// Package health provides minimal liveness and readiness endpoints. The flow
// endpoint holds no external dependencies, so liveness only guards against
// goroutine leaks and readiness is a flag flipped by the server lifecycle.
package health

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
)

// Service serves /livez and /readyz.
type Service struct {
	ready         atomic.Bool
	maxGoroutines int
}

// New creates a health Service. maxGoroutines bounds the liveness check; a
// non-positive value disables it.
func New(maxGoroutines int) *Service {
	return &Service{maxGoroutines: maxGoroutines}
}

// SetReady flips the readiness flag.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

type status struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint reports process liveness.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	if n := runtime.NumGoroutine(); s.maxGoroutines > 0 && n > s.maxGoroutines {
		writeStatus(w, http.StatusServiceUnavailable, status{
			Status: "unhealthy",
			Checks: map[string]string{"goroutines": "count exceeds limit"},
		})
		return
	}
	writeStatus(w, http.StatusOK, status{Status: "ok"})
}

// ReadyEndpoint reports whether the server accepts traffic.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, status{Status: "not ready"})
		return
	}
	writeStatus(w, http.StatusOK, status{Status: "ok"})
}

func writeStatus(w http.ResponseWriter, code int, st status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(st)
}
