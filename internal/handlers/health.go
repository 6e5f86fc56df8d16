package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/httpx"
)

// ReadinessCheck probes one dependency; a nil error means ready.
type ReadinessCheck func(ctx context.Context) error

// HealthHandlers serves liveness and readiness endpoints.
type HealthHandlers struct {
	startedAt time.Time
	clock     func() time.Time
	checks    map[string]ReadinessCheck
}

// HealthOption customises health handler construction.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers constructs health handlers with the provided options.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		startedAt: time.Now(),
		clock:     time.Now,
		checks:    make(map[string]ReadinessCheck),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithHealthClock overrides the clock used in responses.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
			h.startedAt = clock()
		}
	}
}

// WithReadinessCheck registers a named dependency probe for /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name != "" && check != nil {
			h.checks[name] = check
		}
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.startedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// Readyz runs every dependency probe and reports aggregate readiness.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.clock()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	payload := map[string]any{
		"status":    "ok",
		"timestamp": now.UTC().Format(time.RFC3339),
		"checks":    results,
	}
	if status != http.StatusOK {
		payload["status"] = "degraded"
	}
	httpx.WriteJSON(w, status, payload)
}
