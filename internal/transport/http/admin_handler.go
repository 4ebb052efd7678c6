package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "basketwatch/internal/errors"
	"basketwatch/internal/services"
	"basketwatch/pkg/contracts/domain"
)

// AdminServiceInterface is the write surface the admin handler depends on.
type AdminServiceInterface interface {
	IngestAll(ctx context.Context) ([]services.IngestResult, error)
	RunPipeline(ctx context.Context) (*domain.CombinedDataset, error)
	RecomputeBaselines(ctx context.Context) error
	CleanupBackups(ctx context.Context, keep int) (int, error)
}

// AdminHandler exposes ingestion and pipeline operations behind the admin
// bearer gate: cron jobs and the dashboard's refresh button land here.
type AdminHandler struct {
	service      AdminServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	backupsKept  int
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(service AdminServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, backupsKept int) *AdminHandler {
	return &AdminHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "admin_handler")),
		errorHandler: errorHandler,
		backupsKept:  backupsKept,
	}
}

// Routes returns the admin routes. Callers must mount them behind auth.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/refresh", h.Refresh)
	r.Post("/pipeline", h.RunPipeline)
	r.Post("/baselines", h.RecomputeBaselines)
	return r
}

// Refresh handles POST /api/admin/refresh: ingest every commodity, rerun
// the pipeline, and prune old backups.
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	results, err := h.service.IngestAll(ctx)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	dataset, err := h.service.RunPipeline(ctx)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	pruned, err := h.service.CleanupBackups(ctx, h.backupsKept)
	if err != nil {
		// Pruning is housekeeping; the refresh itself succeeded.
		h.logger.WarnContext(ctx, "backup cleanup failed",
			slog.String("error", err.Error()))
	}

	render.JSON(w, r, map[string]interface{}{
		"ingested":       results,
		"basket_points":  len(dataset.Basket),
		"backups_pruned": pruned,
		"last_processed": dataset.Metadata.LastProcessed,
	})
}

// RunPipeline handles POST /api/admin/pipeline: rerun alignment, basket,
// and charts over the stored raw data without fetching.
func (h *AdminHandler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.service.RunPipeline(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, dataset)
}

// RecomputeBaselines handles POST /api/admin/baselines.
func (h *AdminHandler) RecomputeBaselines(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RecomputeBaselines(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}
