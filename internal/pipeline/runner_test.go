package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basketwatch/internal/config"
	"basketwatch/internal/store"
	"basketwatch/pkg/contracts/domain"
)

const rawTwoCommodities = `{
	"eggs": {
		"metadata": {"name": "eggs"},
		"prices": [
			{"date": "2024 Avg", "price": 3.15, "minPrice": 3.15, "maxPrice": 3.15},
			{"date": "2025-01-05", "price": 5.83, "minPrice": 5.49, "maxPrice": 6.10}
		]
	},
	"milk": {
		"metadata": {"name": "milk"},
		"prices": [
			{"date": "2024 Avg", "price": 3.41, "minPrice": 3.41, "maxPrice": 3.41},
			{"date": "2025-01-03", "price": 3.20, "minPrice": 3.05, "maxPrice": 3.35}
		]
	}
}`

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		BaselineYear:    2024,
		ProcessingYear:  2025,
		CombineStrategy: "weighted_sum",
		Quantities:      map[string]float64{"eggs": 1, "milk": 1},
	}
}

func newTestRunner(t *testing.T, raw string) (*Runner, *store.CommodityStore, *store.MemoryStore) {
	t.Helper()
	kv := store.NewMemoryStore()
	if raw != "" {
		require.NoError(t, kv.Set(context.Background(), store.KeyPriceData, raw))
	}
	cs := store.NewCommodityStore(kv, nil)
	runner := NewRunner(pipelineConfig(), cs, nil, nil)
	runner.clock = func() time.Time { return time.Date(2025, 1, 12, 6, 0, 0, 0, time.UTC) }
	return runner, cs, kv
}

func TestRunEndToEnd(t *testing.T) {
	runner, _, _ := newTestRunner(t, rawTwoCommodities)
	ctx := context.Background()

	dataset, err := runner.Run(ctx)
	require.NoError(t, err)

	// Baseline basket point: 3.15 + 3.41.
	require.NotEmpty(t, dataset.Basket)
	baseline := dataset.Basket[0]
	assert.True(t, baseline.AdjDate.IsBaseline())
	assert.InDelta(t, 6.56, baseline.BasketPrice, 1e-9)
	assert.True(t, baseline.IsComplete)

	// Eggs on Sunday 2025-01-05 anchor to Friday 2025-01-03, where milk
	// reports directly: one combined, complete point.
	require.Len(t, dataset.Basket, 2)
	combined := dataset.Basket[1]
	assert.Equal(t, "2025-01-03", combined.AdjDate.String())
	assert.InDelta(t, 9.03, combined.BasketPrice, 1e-9)
	assert.True(t, combined.IsComplete)
	assert.Equal(t, 2, combined.CommoditiesAvailable)

	// Charts exist per commodity with the baseline folded in.
	require.Contains(t, dataset.Charts, "eggs")
	eggs := dataset.Charts["eggs"]
	require.NotNil(t, eggs.Latest)
	assert.Equal(t, "2025-01-03", eggs.Latest.AdjDate.String())
	require.NotNil(t, eggs.VsBaseline)
	assert.InDelta(t, 5.83-3.15, eggs.VsBaseline.Amount, 1e-9)

	// Metadata summary reflects the latest basket point.
	require.NotNil(t, dataset.Metadata.Latest)
	assert.InDelta(t, 9.03, dataset.Metadata.Latest.BasketPrice, 1e-9)
	assert.Equal(t, "2025-01-03", dataset.Metadata.Latest.Date.String())
	require.NotNil(t, dataset.Metadata.Latest.VsBaseline)
	assert.InDelta(t, 9.03-6.56, dataset.Metadata.Latest.VsBaseline.Amount, 1e-9)

	// Per-commodity metadata carries aligned point counts.
	assert.Equal(t, 2, dataset.Metadata.Commodities["eggs"].PriceCount)
	assert.Equal(t, 2, dataset.Metadata.Commodities["milk"].PriceCount)
}

func TestRunPersistsWhatItReturns(t *testing.T) {
	runner, cs, _ := newTestRunner(t, rawTwoCommodities)
	ctx := context.Background()

	dataset, err := runner.Run(ctx)
	require.NoError(t, err)

	persisted, err := cs.LoadCombined(ctx)
	require.NoError(t, err)
	assert.Equal(t, dataset.Basket, persisted.Basket)
	assert.Equal(t, dataset.AlignedPrices, persisted.AlignedPrices)
	assert.Equal(t, dataset.Metadata.Quantities, persisted.Metadata.Quantities)

	// Round-trip: the reloaded chart's latest equals the last data element.
	for commodity, chart := range persisted.Charts {
		require.NotNil(t, chart.Latest, commodity)
		assert.Equal(t, chart.Data[len(chart.Data)-1], *chart.Latest, commodity)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	runner, _, kv := newTestRunner(t, rawTwoCommodities)
	ctx := context.Background()

	_, err := runner.Run(ctx)
	require.NoError(t, err)
	first, err := kv.Get(ctx, store.KeyCombinedData)
	require.NoError(t, err)

	_, err = runner.Run(ctx)
	require.NoError(t, err)
	second, err := kv.Get(ctx, store.KeyCombinedData)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same raw input yields byte-identical output")
}

func TestRunSkipsMalformedCommodity(t *testing.T) {
	raw := `{
		"eggs": {"metadata": {}, "prices": [{"date": "2025-01-03", "price": 5.80, "minPrice": 5.80, "maxPrice": 5.80}]},
		"milk": {"metadata": {}}
	}`
	runner, _, _ := newTestRunner(t, raw)

	dataset, err := runner.Run(context.Background())
	require.NoError(t, err, "one malformed commodity must not abort the run")
	assert.Contains(t, dataset.Charts, "eggs")
	assert.NotContains(t, dataset.Charts, "milk")
	require.Len(t, dataset.Basket, 1)
	assert.False(t, dataset.Basket[0].IsComplete, "milk is configured but unavailable")
}

func TestRunEmptyStore(t *testing.T) {
	runner, _, _ := newTestRunner(t, "")

	dataset, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dataset.Basket)
	assert.Empty(t, dataset.AlignedPrices)
	assert.Nil(t, dataset.Metadata.Latest)
}

func TestRecomputeBaselines(t *testing.T) {
	raw := `{
		"eggs": {
			"metadata": {"name": "eggs"},
			"prices": [
				{"date": "2024-03-04", "price": 3.00, "minPrice": 3.00, "maxPrice": 3.00},
				{"date": "2024-09-09", "price": 3.30, "minPrice": 3.30, "maxPrice": 3.30},
				{"date": "2025-01-06", "price": 5.83, "minPrice": 5.83, "maxPrice": 5.83}
			]
		}
	}`
	runner, cs, _ := newTestRunner(t, raw)
	ctx := context.Background()

	require.NoError(t, runner.RecomputeBaselines(ctx))

	all, _, err := cs.LoadAll(ctx)
	require.NoError(t, err)
	stats := all["eggs"].Metadata.Baseline["2024"]
	assert.InDelta(t, 3.15, stats.AnnualMean, 1e-9)
	assert.Equal(t, 3.00, stats.Min)
	assert.Equal(t, 3.30, stats.Max)

	// A recomputed baseline feeds the aligner as a synthesized point.
	dataset, err := runner.Run(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, dataset.Basket)
	assert.True(t, dataset.Basket[0].AdjDate.IsBaseline())
	assert.InDelta(t, 3.15, dataset.Basket[0].BasketPrice, 1e-9)
}
