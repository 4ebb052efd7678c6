package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"basketwatch/internal/config"
	"basketwatch/internal/infrastructure"
	"basketwatch/internal/store"
	"basketwatch/pkg/contracts/domain"
)

// Runner executes the full alignment, basket, and chart pipeline over the
// stored raw data and persists the combined document. One run rebuilds every
// derived structure from scratch; with no new observations the derived
// output is identical run to run.
type Runner struct {
	store    *store.CommodityStore
	aligner  Aligner
	composer Composer
	logger   *slog.Logger
	metrics  *infrastructure.Metrics
	clock    func() time.Time
}

// NewRunner builds a pipeline runner from configuration.
func NewRunner(cfg config.PipelineConfig, st *store.CommodityStore, logger *slog.Logger, metrics *infrastructure.Metrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store: st,
		aligner: Aligner{
			BaselineYear:   cfg.BaselineYear,
			ProcessingYear: cfg.ProcessingYear,
		},
		composer: Composer{
			Strategy:   CombineStrategy(cfg.CombineStrategy),
			Quantities: cfg.Quantities,
		},
		logger:  logger.With(slog.String("component", "pipeline")),
		metrics: metrics,
		clock:   time.Now,
	}
}

// Run loads the raw store, aligns each commodity, composes the basket,
// projects the per-commodity charts, persists the combined document, and
// returns the same structure it persisted. Commodities with malformed stored
// data are skipped with a diagnostic; storage failures abort the run with no
// partial write.
func (r *Runner) Run(ctx context.Context) (*domain.CombinedDataset, error) {
	started := r.clock()
	dataset, err := r.run(ctx)
	if r.metrics != nil {
		r.metrics.PipelineDuration.Observe(time.Since(started).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		r.metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	}
	return dataset, err
}

func (r *Runner) run(ctx context.Context) (*domain.CombinedDataset, error) {
	allSeries, skipped, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for commodity, cause := range skipped {
		r.logger.WarnContext(ctx, "commodity excluded from pipeline run",
			slog.String("commodity", commodity),
			slog.String("error", cause.Error()))
	}

	commodities := make([]string, 0, len(allSeries))
	for name := range allSeries {
		commodities = append(commodities, name)
	}
	sort.Strings(commodities)

	alignedByCommodity := make(map[string][]domain.AlignedPrice, len(commodities))
	var alignedFlat []domain.AlignedPrice
	charts := make(map[string]domain.ChartSeries, len(commodities))
	commodityMeta := make(map[string]domain.CommodityMeta, len(commodities))

	for _, commodity := range commodities {
		series := allSeries[commodity]
		aligned := r.aligner.AlignCommodity(commodity, series)
		alignedByCommodity[commodity] = aligned
		alignedFlat = append(alignedFlat, aligned...)
		commodityMeta[commodity] = domain.CommodityMeta{
			SeriesMetadata: series.Metadata,
			PriceCount:     len(aligned),
		}
		if len(aligned) > 0 {
			charts[commodity] = ProjectChart(aligned)
		}
		r.logger.DebugContext(ctx, "aligned commodity",
			slog.String("commodity", commodity),
			slog.Int("observations", len(series.Prices)),
			slog.Int("aligned_points", len(aligned)))
	}

	basket := r.composer.Compose(alignedByCommodity)

	dataset := &domain.CombinedDataset{
		Metadata: domain.CombinedMetadata{
			LastProcessed: r.clock().UTC(),
			Quantities:    r.composer.Quantities,
			Commodities:   commodityMeta,
			Latest:        latestSummary(basket),
		},
		AlignedPrices: alignedFlat,
		Basket:        basket,
		Charts:        charts,
	}

	if err := r.store.SaveCombined(ctx, dataset); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("commodities", len(commodities)),
		slog.Int("aligned_prices", len(alignedFlat)),
		slog.Int("basket_points", len(basket)))
	return dataset, nil
}

// RecomputeBaselines recalculates each commodity's baseline-year stats from
// its stored observations and records them on the series metadata. Zero
// stats (no observations in the baseline year) are not recorded.
func (r *Runner) RecomputeBaselines(ctx context.Context) error {
	allSeries, skipped, err := r.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	for commodity := range skipped {
		r.logger.WarnContext(ctx, "skipping baseline for malformed commodity",
			slog.String("commodity", commodity))
	}

	year := r.aligner.BaselineYear
	yearKey := strconv.Itoa(year)
	for commodity, series := range allSeries {
		stats := ComputeBaseline(series.Prices, year)
		if stats.IsZero() {
			continue
		}
		if existing, ok := series.Metadata.Baseline[yearKey]; ok && existing == stats {
			continue
		}
		if err := r.store.SetBaseline(ctx, commodity, year, stats, series.Metadata.DataSource[yearKey]); err != nil {
			return err
		}
		r.logger.InfoContext(ctx, "baseline recorded",
			slog.String("commodity", commodity),
			slog.String("year", yearKey),
			slog.Float64("annual_mean", stats.AnnualMean))
	}
	return nil
}

// latestSummary summarizes the final basket point and its delta against the
// baseline basket point.
func latestSummary(basket []domain.BasketPoint) *domain.LatestSummary {
	if len(basket) == 0 {
		return nil
	}
	last := basket[len(basket)-1]
	summary := &domain.LatestSummary{
		BasketPrice: last.BasketPrice,
		Date:        last.AdjDate,
	}
	if !last.AdjDate.IsBaseline() {
		for _, point := range basket {
			if point.AdjDate.IsBaseline() {
				summary.VsBaseline = periodChange(point.BasketPrice, last.BasketPrice)
				break
			}
		}
	}
	return summary
}
