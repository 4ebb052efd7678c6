package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"basketwatch/internal/dates"
	apierrors "basketwatch/internal/errors"
	"basketwatch/pkg/contracts/domain"
)

// CommodityStore reads and writes the per-commodity price series document.
// It holds no in-memory state: every operation re-reads the full document
// from the backing store, a deliberate simplicity/consistency trade-off at
// this data volume.
type CommodityStore struct {
	kv     KeyValueStore
	logger *slog.Logger
	clock  func() time.Time
}

// NewCommodityStore creates a store over the given key-value backend.
func NewCommodityStore(kv KeyValueStore, logger *slog.Logger) *CommodityStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommodityStore{
		kv:     kv,
		logger: logger.With(slog.String("component", "commodity_store")),
		clock:  time.Now,
	}
}

// seriesEnvelope distinguishes a missing prices array from an empty one.
type seriesEnvelope struct {
	Metadata domain.SeriesMetadata `json:"metadata"`
	Prices   json.RawMessage       `json:"prices"`
}

// LoadAll returns every commodity series in the raw document. Commodities
// whose stored form fails to parse are skipped and reported in the second
// return value keyed by commodity name; the run continues without them.
func (s *CommodityStore) LoadAll(ctx context.Context) (map[string]*domain.CommoditySeries, map[string]error, error) {
	raw, err := s.loadRaw(ctx)
	if err != nil {
		return nil, nil, err
	}

	series := make(map[string]*domain.CommoditySeries, len(raw))
	skipped := make(map[string]error)
	for commodity, blob := range raw {
		cs, err := decodeSeries(commodity, blob)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping malformed commodity data",
				slog.String("commodity", commodity),
				slog.String("error", err.Error()))
			skipped[commodity] = err
			continue
		}
		series[commodity] = cs
	}
	return series, skipped, nil
}

// MergeObservations merges candidate observations into one commodity's
// series, deduplicating by exact date. Admitted candidates get their weekly
// anchor date attached before insertion. Returns exactly the observations
// that were added. Nothing is written when every candidate was a duplicate.
func (s *CommodityStore) MergeObservations(ctx context.Context, commodity string, candidates []domain.PriceObservation) ([]domain.PriceObservation, error) {
	raw, err := s.loadRaw(ctx)
	if err != nil {
		return nil, err
	}

	series := &domain.CommoditySeries{Metadata: domain.SeriesMetadata{Name: commodity}}
	if blob, ok := raw[commodity]; ok {
		series, err = decodeSeries(commodity, blob)
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[domain.AnchorDate]bool, len(series.Prices))
	for _, p := range series.Prices {
		seen[p.Date] = true
	}

	var added []domain.PriceObservation
	for _, candidate := range candidates {
		if candidate.Date.IsZero() || seen[candidate.Date] {
			continue
		}
		seen[candidate.Date] = true
		candidate.AdjDate = dates.NearestAnchor(candidate.Date)
		added = append(added, candidate)
	}
	if len(added) == 0 {
		return nil, nil
	}

	series.Prices = append(series.Prices, added...)
	domain.SortObservations(series.Prices)
	series.Metadata.LastUpdated = s.clock().UTC()

	if err := s.storeSeries(ctx, raw, commodity, series); err != nil {
		return nil, err
	}
	return added, nil
}

// SetBaseline records the computed yearly baseline stats and data source on
// a commodity's metadata.
func (s *CommodityStore) SetBaseline(ctx context.Context, commodity string, year int, stats domain.BaselineStats, source string) error {
	raw, err := s.loadRaw(ctx)
	if err != nil {
		return err
	}
	blob, ok := raw[commodity]
	if !ok {
		return fmt.Errorf("set baseline: commodity %q not in store", commodity)
	}
	series, err := decodeSeries(commodity, blob)
	if err != nil {
		return err
	}

	yearKey := strconv.Itoa(year)
	if series.Metadata.Baseline == nil {
		series.Metadata.Baseline = make(map[string]domain.BaselineStats)
	}
	series.Metadata.Baseline[yearKey] = stats
	if source != "" {
		if series.Metadata.DataSource == nil {
			series.Metadata.DataSource = make(map[string]string)
		}
		series.Metadata.DataSource[yearKey] = source
	}
	return s.storeSeries(ctx, raw, commodity, series)
}

// SaveCombined persists the pipeline output as a single document.
func (s *CommodityStore) SaveCombined(ctx context.Context, dataset *domain.CombinedDataset) error {
	data, err := json.Marshal(dataset)
	if err != nil {
		return fmt.Errorf("encode combined dataset: %w", err)
	}
	if err := s.kv.Set(ctx, KeyCombinedData, string(data)); err != nil {
		return apierrors.NewStorageError("set", KeyCombinedData, err)
	}
	return nil
}

// LoadCombined returns the persisted combined document, or ErrKeyNotFound
// when no pipeline run has been persisted yet.
func (s *CommodityStore) LoadCombined(ctx context.Context) (*domain.CombinedDataset, error) {
	val, err := s.kv.Get(ctx, KeyCombinedData)
	if err == ErrKeyNotFound {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, apierrors.NewStorageError("get", KeyCombinedData, err)
	}
	var dataset domain.CombinedDataset
	if err := json.Unmarshal([]byte(val), &dataset); err != nil {
		return nil, apierrors.NewMalformedDataError(KeyCombinedData, err)
	}
	return &dataset, nil
}

// CleanupBackups keeps the newest `keep` backup snapshots and deletes the
// rest. Backup keys embed a unix timestamp so lexical order is age order.
func (s *CommodityStore) CleanupBackups(ctx context.Context, keep int) (int, error) {
	keys, err := s.kv.Keys(ctx, BackupKeyPrefix+"*")
	if err != nil {
		return 0, apierrors.NewStorageError("keys", BackupKeyPrefix+"*", err)
	}
	if len(keys) <= keep {
		return 0, nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	stale := keys[keep:]
	if err := s.kv.Del(ctx, stale...); err != nil {
		return 0, apierrors.NewStorageError("del", "backups", err)
	}
	return len(stale), nil
}

// Ping verifies the backing store is reachable.
func (s *CommodityStore) Ping(ctx context.Context) error {
	if err := s.kv.Ping(ctx); err != nil {
		return apierrors.NewStorageError("ping", "", err)
	}
	return nil
}

// loadRaw fetches the raw document as per-commodity JSON blobs. Keeping
// undecoded blobs intact means a write for one commodity never mangles
// another commodity's stored bytes.
func (s *CommodityStore) loadRaw(ctx context.Context) (map[string]json.RawMessage, error) {
	val, err := s.kv.Get(ctx, KeyPriceData)
	if err == ErrKeyNotFound {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, apierrors.NewStorageError("get", KeyPriceData, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(val), &raw); err != nil {
		return nil, apierrors.NewMalformedDataError(KeyPriceData, err)
	}
	return raw, nil
}

// storeSeries writes one commodity's series back into the raw document,
// taking a timestamped backup of the previous document first. A backup
// failure is logged but never blocks the primary write.
func (s *CommodityStore) storeSeries(ctx context.Context, raw map[string]json.RawMessage, commodity string, series *domain.CommoditySeries) error {
	blob, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encode series %q: %w", commodity, err)
	}
	raw[commodity] = blob

	doc, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode price data document: %w", err)
	}

	if prev, err := s.kv.Get(ctx, KeyPriceData); err == nil {
		backupKey := fmt.Sprintf("%s%d", BackupKeyPrefix, s.clock().UTC().Unix())
		if err := s.kv.Set(ctx, backupKey, prev); err != nil {
			s.logger.WarnContext(ctx, "backup write failed, continuing with primary write",
				slog.String("key", backupKey),
				slog.String("error", err.Error()))
		}
	}

	if err := s.kv.Set(ctx, KeyPriceData, string(doc)); err != nil {
		return apierrors.NewStorageError("set", KeyPriceData, err)
	}
	return nil
}

func decodeSeries(commodity string, blob json.RawMessage) (*domain.CommoditySeries, error) {
	var envelope seriesEnvelope
	if err := json.Unmarshal(blob, &envelope); err != nil {
		return nil, apierrors.NewMalformedDataError(commodity, err)
	}
	if envelope.Prices == nil {
		return nil, apierrors.NewMalformedDataError(commodity, fmt.Errorf("missing prices array"))
	}
	var prices []domain.PriceObservation
	if err := json.Unmarshal(envelope.Prices, &prices); err != nil {
		return nil, apierrors.NewMalformedDataError(commodity, err)
	}
	return &domain.CommoditySeries{Metadata: envelope.Metadata, Prices: prices}, nil
}
