package handler

import (
	"net/http"
	"time"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
	"github.com/Saiguru2554/Health-Link-Qr/internal/infra/buildinfo"
	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": buildinfo.Get().Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			logger.L(r.Context()).Warn("readiness check failed", "error", err)
			h.writeError(w, r, http.StatusServiceUnavailable,
				domain.ErrServiceUnavailable.Code, domain.ErrServiceUnavailable.Message, nil)
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
