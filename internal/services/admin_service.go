package services

import (
	"context"

	"basketwatch/internal/store"
	"basketwatch/pkg/contracts/domain"
)

// AdminService bundles the administrative operations: full refresh
// ingestion, pipeline reruns, baseline recomputation, and backup pruning.
type AdminService struct {
	ingest *IngestService
	prices *PriceService
	store  *store.CommodityStore
}

// NewAdminService creates the admin service.
func NewAdminService(ingest *IngestService, prices *PriceService, st *store.CommodityStore) *AdminService {
	return &AdminService{ingest: ingest, prices: prices, store: st}
}

// IngestAll fetches and merges every configured commodity.
func (s *AdminService) IngestAll(ctx context.Context) ([]IngestResult, error) {
	return s.ingest.IngestAll(ctx)
}

// RunPipeline reruns the full pipeline over the stored raw data.
func (s *AdminService) RunPipeline(ctx context.Context) (*domain.CombinedDataset, error) {
	return s.prices.RunPipeline(ctx)
}

// RecomputeBaselines refreshes every commodity's baseline-year stats.
func (s *AdminService) RecomputeBaselines(ctx context.Context) error {
	return s.prices.RecomputeBaselines(ctx)
}

// CleanupBackups prunes all but the newest `keep` backup snapshots.
func (s *AdminService) CleanupBackups(ctx context.Context, keep int) (int, error) {
	return s.store.CleanupBackups(ctx, keep)
}
