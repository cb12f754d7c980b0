package handlers

import (
	"net/http"
	"time"

	"github.com/urban-harvest/kiosk/internal/platform/httpx"
)

// ReadinessCheck reports whether a dependency is ready to serve.
type ReadinessCheck func(r *http.Request) error

// HealthHandlers exposes liveness and readiness probes.
type HealthHandlers struct {
	started time.Time
	checks  map[string]ReadinessCheck
}

// NewHealthHandlers constructs health handlers with optional named
// readiness checks.
func NewHealthHandlers(checks map[string]ReadinessCheck) *HealthHandlers {
	return &HealthHandlers{
		started: time.Now().UTC(),
		checks:  checks,
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz runs the readiness checks and fails the probe if any dependency
// is unavailable.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	failures := map[string]string{}
	for name, check := range h.checks {
		if check == nil {
			continue
		}
		if err := check(r); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "unavailable",
			"failures": failures,
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
