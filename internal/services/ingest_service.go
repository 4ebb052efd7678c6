// Package services wires the store, fetch clients, and pipeline into the
// operations exposed to the HTTP and CLI layers.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"basketwatch/internal/config"
	"basketwatch/internal/fetch"
	"basketwatch/internal/infrastructure"
	"basketwatch/internal/pipeline"
	"basketwatch/internal/store"
	"basketwatch/pkg/contracts/domain"
)

// IngestResult reports one commodity's ingestion outcome. A fetch failure
// degrades that commodity to zero added observations; it never fails the
// whole batch.
type IngestResult struct {
	Commodity string `json:"commodity"`
	Added     int    `json:"added"`
	Error     string `json:"error,omitempty"`
}

// IngestService fetches raw observations from the upstream statistical APIs
// and merges them into the commodity store.
type IngestService struct {
	store       *store.CommodityStore
	clients     map[string]fetch.Client
	commodities []config.CommodityConfig
	baseline    int
	processing  int
	logger      *slog.Logger
	metrics     *infrastructure.Metrics
}

// NewIngestService builds the ingestion service. Clients are keyed by the
// commodity config source name ("bls", "eia").
func NewIngestService(cfg *config.Config, st *store.CommodityStore, clients map[string]fetch.Client, logger *slog.Logger, metrics *infrastructure.Metrics) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		store:       st,
		clients:     clients,
		commodities: cfg.Pipeline.Commodities,
		baseline:    cfg.Pipeline.BaselineYear,
		processing:  cfg.Pipeline.ProcessingYear,
		logger:      logger.With(slog.String("component", "ingest_service")),
		metrics:     metrics,
	}
}

// IngestAll fetches every configured commodity concurrently, then merges the
// results sequentially (the store document is shared mutable state, the
// fetches are not) and refreshes the baseline-year stats.
func (s *IngestService) IngestAll(ctx context.Context) ([]IngestResult, error) {
	type fetched struct {
		commodity config.CommodityConfig
		obs       []fetch.RawObservation
		err       error
	}

	results := make([]fetched, len(s.commodities))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, commodity := range s.commodities {
		group.Go(func() error {
			obs, err := s.fetchCommodity(groupCtx, commodity)
			results[i] = fetched{commodity: commodity, obs: obs, err: err}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := make([]IngestResult, 0, len(results))
	for _, result := range results {
		name := result.commodity.Name
		if result.err != nil {
			s.logger.ErrorContext(ctx, "commodity ingestion failed",
				slog.String("commodity", name),
				slog.String("series_id", result.commodity.SeriesID),
				slog.String("error", result.err.Error()))
			if s.metrics != nil {
				s.metrics.FetchFailures.WithLabelValues(name).Inc()
			}
			out = append(out, IngestResult{Commodity: name, Error: result.err.Error()})
			continue
		}

		added, err := s.store.MergeObservations(ctx, name, toObservations(result.obs))
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", name, err)
		}
		if s.metrics != nil && len(added) > 0 {
			s.metrics.ObservationsAdded.WithLabelValues(name).Add(float64(len(added)))
		}
		s.logger.InfoContext(ctx, "commodity ingested",
			slog.String("commodity", name),
			slog.Int("fetched", len(result.obs)),
			slog.Int("added", len(added)))

		if len(added) > 0 {
			if err := s.refreshBaseline(ctx, result.commodity); err != nil {
				return nil, err
			}
		}
		out = append(out, IngestResult{Commodity: name, Added: len(added)})
	}
	return out, nil
}

// IngestCommodity fetches and merges a single configured commodity.
func (s *IngestService) IngestCommodity(ctx context.Context, name string) (IngestResult, error) {
	for _, commodity := range s.commodities {
		if commodity.Name != name {
			continue
		}
		obs, err := s.fetchCommodity(ctx, commodity)
		if err != nil {
			return IngestResult{Commodity: name, Error: err.Error()}, err
		}
		added, err := s.store.MergeObservations(ctx, name, toObservations(obs))
		if err != nil {
			return IngestResult{}, err
		}
		if len(added) > 0 {
			if err := s.refreshBaseline(ctx, commodity); err != nil {
				return IngestResult{}, err
			}
		}
		return IngestResult{Commodity: name, Added: len(added)}, nil
	}
	return IngestResult{}, fmt.Errorf("commodity %q not configured", name)
}

func (s *IngestService) fetchCommodity(ctx context.Context, commodity config.CommodityConfig) ([]fetch.RawObservation, error) {
	client, ok := s.clients[commodity.Source]
	if !ok {
		return nil, fmt.Errorf("no client for source %q", commodity.Source)
	}
	start := time.Date(s.baseline, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(s.processing, time.December, 31, 0, 0, 0, 0, time.UTC)
	return client.FetchSeries(ctx, commodity.SeriesID, start, end)
}

// refreshBaseline recomputes the baseline-year stats from the stored series
// and records them with the upstream source name.
func (s *IngestService) refreshBaseline(ctx context.Context, commodity config.CommodityConfig) error {
	all, _, err := s.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	series, ok := all[commodity.Name]
	if !ok {
		return nil
	}
	stats := pipeline.ComputeBaseline(series.Prices, s.baseline)
	if stats.IsZero() {
		return nil
	}
	source := ""
	if client, ok := s.clients[commodity.Source]; ok {
		source = client.Source()
	}
	return s.store.SetBaseline(ctx, commodity.Name, s.baseline, stats, source)
}

func toObservations(raw []fetch.RawObservation) []domain.PriceObservation {
	observations := make([]domain.PriceObservation, 0, len(raw))
	for _, r := range raw {
		date, err := domain.ParseAnchorDate(r.Date)
		if err != nil {
			continue
		}
		observations = append(observations, domain.PriceObservation{
			Date:     date,
			Price:    r.Price,
			MinPrice: r.MinPrice,
			MaxPrice: r.MaxPrice,
		})
	}
	return observations
}
