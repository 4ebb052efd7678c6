package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthServiceInterface is the liveness surface the health handler needs.
type HealthServiceInterface interface {
	Health(ctx context.Context) error
}

// HealthHandler reports process liveness and backing-store reachability.
type HealthHandler struct {
	service HealthServiceInterface
	logger  *slog.Logger
	started time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(service HealthServiceInterface, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("component", "health_handler")),
		started: time.Now(),
	}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"storage": "ok",
	}
	if err := h.service.Health(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "storage health check failed",
			slog.String("error", err.Error()))
		status["status"] = "degraded"
		status["storage"] = err.Error()
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}
