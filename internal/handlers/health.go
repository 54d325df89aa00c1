package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bobmcallan/zep-bridge/internal/common"
)

const readinessTimeout = 5 * time.Second

// HealthHandler handles liveness requests. It never touches the backend.
type HealthHandler struct {
	logger *common.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(logger *common.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Pinger reports whether the backend can currently issue sessions.
type Pinger interface {
	Ping(ctx context.Context) error
	BaseURL() string
}

// ReadyHandler checks that the backend is reachable and hands out a session.
type ReadyHandler struct {
	logger *common.Logger
	pinger Pinger
}

// NewReadyHandler creates a readiness handler backed by pinger.
func NewReadyHandler(logger *common.Logger, pinger Pinger) *ReadyHandler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &ReadyHandler{logger: logger, pinger: pinger}
}

// ServeHTTP handles GET /api/ready.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warn().Str("backend", h.pinger.BaseURL()).Str("error", err.Error()).Msg("readiness check failed")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "down",
			"backend": h.pinger.BaseURL(),
			"error":   err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": h.pinger.BaseURL(),
	})
}
