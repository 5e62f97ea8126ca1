package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/greenmarket/sso/internal/observability/logger"
)

// HealthHandler answers liveness and readiness probes. Ping is optional;
// when set, readyz fails while the database is unreachable.
type HealthHandler struct {
	Ping func(ctx context.Context) error
}

// Healthz handles GET /healthz: process is up.
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz: dependencies are reachable.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			logger.From(r.Context()).Warn("readiness check failed", logger.Err(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
