package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"basketwatch/internal/config"
	apierrors "basketwatch/internal/errors"
	"basketwatch/internal/infrastructure"
	"basketwatch/internal/middleware"
)

// RouterDeps carries the handlers and cross-cutting pieces the router mounts.
type RouterDeps struct {
	Prices  *PricesHandler
	Admin   *AdminHandler
	Health  *HealthHandler
	Logger  *slog.Logger
	Metrics *infrastructure.Metrics
	Config  *config.Config
}

// NewRouter assembles the full HTTP surface: public price data routes, the
// bearer-gated admin routes, health, and Prometheus metrics.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.Route("/api", func(r chi.Router) {
		r.Mount("/prices", deps.Prices.Routes())
		r.Get("/health", deps.Health.HealthCheck)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.BearerAuth(deps.Config.Security.AdminToken))
			r.Mount("/", deps.Admin.Routes())
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errHandler := apierrors.NewErrorHandler(deps.Logger)
		errHandler.HandleError(w, r, apierrors.NotFoundError(r.URL.Path))
	})

	return r
}
