package services

import (
	"context"
	"errors"
	"log/slog"

	apierrors "basketwatch/internal/errors"
	"basketwatch/internal/pipeline"
	"basketwatch/internal/store"
	"basketwatch/pkg/contracts/domain"
)

// PriceService exposes the combined price data and the pipeline entry points
// consumed by the HTTP and CLI layers.
type PriceService struct {
	store  *store.CommodityStore
	runner *pipeline.Runner
	logger *slog.Logger
}

// NewPriceService creates the price service.
func NewPriceService(st *store.CommodityStore, runner *pipeline.Runner, logger *slog.Logger) *PriceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceService{
		store:  st,
		runner: runner,
		logger: logger.With(slog.String("component", "price_service")),
	}
}

// GetCombined returns the persisted combined dataset, running the pipeline
// once when nothing has been persisted yet.
func (s *PriceService) GetCombined(ctx context.Context) (*domain.CombinedDataset, error) {
	dataset, err := s.store.LoadCombined(ctx)
	if err == nil {
		return dataset, nil
	}
	if !errors.Is(err, store.ErrKeyNotFound) {
		return nil, err
	}
	s.logger.InfoContext(ctx, "no combined dataset persisted, running pipeline")
	return s.runner.Run(ctx)
}

// GetBasket returns the basket series from the combined dataset.
func (s *PriceService) GetBasket(ctx context.Context) ([]domain.BasketPoint, error) {
	dataset, err := s.GetCombined(ctx)
	if err != nil {
		return nil, err
	}
	return dataset.Basket, nil
}

// GetChart returns the display series for one commodity.
func (s *PriceService) GetChart(ctx context.Context, commodity string) (domain.ChartSeries, error) {
	dataset, err := s.GetCombined(ctx)
	if err != nil {
		return domain.ChartSeries{}, err
	}
	chart, ok := dataset.Charts[commodity]
	if !ok {
		return domain.ChartSeries{}, apierrors.ErrCommodityNotFound
	}
	return chart, nil
}

// RunPipeline runs alignment, basket composition, and chart projection end
// to end, persists the result, and returns the same structure it persisted.
func (s *PriceService) RunPipeline(ctx context.Context) (*domain.CombinedDataset, error) {
	return s.runner.Run(ctx)
}

// RecomputeBaselines refreshes every commodity's baseline-year stats.
func (s *PriceService) RecomputeBaselines(ctx context.Context) error {
	return s.runner.RecomputeBaselines(ctx)
}

// MergeNewPrices merges observations for one commodity ahead of a pipeline
// run and returns exactly the observations that were added.
func (s *PriceService) MergeNewPrices(ctx context.Context, commodity string, observations []domain.PriceObservation) ([]domain.PriceObservation, error) {
	return s.store.MergeObservations(ctx, commodity, observations)
}

// Health verifies the backing store is reachable.
func (s *PriceService) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}
