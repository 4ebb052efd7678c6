// Package http exposes the combined price data and the administrative
// pipeline operations over a chi router.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "basketwatch/internal/errors"
	"basketwatch/pkg/contracts/domain"
)

// PriceServiceInterface is the read surface the prices handler depends on.
type PriceServiceInterface interface {
	GetCombined(ctx context.Context) (*domain.CombinedDataset, error)
	GetBasket(ctx context.Context) ([]domain.BasketPoint, error)
	GetChart(ctx context.Context, commodity string) (domain.ChartSeries, error)
}

// PricesHandler serves the combined dataset, basket, and chart series.
type PricesHandler struct {
	service      PriceServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPricesHandler creates a prices handler.
func NewPricesHandler(service PriceServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PricesHandler {
	return &PricesHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "prices_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the price data routes.
func (h *PricesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetCombined)
	r.Get("/basket", h.GetBasket)
	r.Get("/chart/{commodity}", h.GetChart)
	return r
}

// GetCombined handles GET /api/prices
func (h *PricesHandler) GetCombined(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.service.GetCombined(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, dataset)
}

// GetBasket handles GET /api/prices/basket
func (h *PricesHandler) GetBasket(w http.ResponseWriter, r *http.Request) {
	basket, err := h.service.GetBasket(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, basket)
}

// GetChart handles GET /api/prices/chart/{commodity}
func (h *PricesHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	commodity := chi.URLParam(r, "commodity")
	if commodity == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("commodity", "commodity name is required"))
		return
	}
	chart, err := h.service.GetChart(r.Context(), commodity)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, chart)
}
