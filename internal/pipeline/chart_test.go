package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basketwatch/pkg/contracts/domain"
)

func TestProjectChart(t *testing.T) {
	aligned := []domain.AlignedPrice{
		alignedAt("eggs", "2024 Avg", 3.15),
		alignedAt("eggs", "2025-01-03", 5.80),
		alignedAt("eggs", "2025-01-10", 6.09),
	}

	series := ProjectChart(aligned)
	require.Len(t, series.Data, 3)

	assert.Nil(t, series.Data[0].Change)
	assert.Nil(t, series.Data[1].Change, "baseline is never the previous anchor")
	require.NotNil(t, series.Data[2].Change)
	assert.InDelta(t, 0.29, series.Data[2].Change.Amount, 1e-9)
	assert.InDelta(t, 5.0, series.Data[2].Change.Percent, 1e-9)

	require.NotNil(t, series.Latest)
	assert.Equal(t, "2025-01-10", series.Latest.AdjDate.String())
	assert.Equal(t, 6.09, series.Latest.Price)
	assert.Equal(t, "Jan 10, 2025", series.Latest.FormattedDate)

	require.NotNil(t, series.VsBaseline)
	assert.InDelta(t, 2.94, series.VsBaseline.Amount, 1e-9)
	assert.InDelta(t, 93.333333, series.VsBaseline.Percent, 1e-5)
}

func TestProjectChartWithoutBaseline(t *testing.T) {
	series := ProjectChart([]domain.AlignedPrice{
		alignedAt("milk", "2025-01-03", 3.20),
		alignedAt("milk", "2025-01-10", 3.30),
	})

	assert.Nil(t, series.VsBaseline, "no baseline point, no vsBaseline")
	require.NotNil(t, series.Latest)
	assert.Equal(t, "2025-01-10", series.Latest.AdjDate.String())
}

func TestProjectChartBaselineOnly(t *testing.T) {
	series := ProjectChart([]domain.AlignedPrice{alignedAt("milk", "2024 Avg", 3.41)})

	require.Len(t, series.Data, 1)
	require.NotNil(t, series.Latest)
	assert.True(t, series.Latest.AdjDate.IsBaseline())
	assert.Nil(t, series.VsBaseline, "latest cannot be compared with itself")
}

func TestProjectChartEmpty(t *testing.T) {
	series := ProjectChart(nil)
	assert.Empty(t, series.Data)
	assert.Nil(t, series.Latest)
	assert.Nil(t, series.VsBaseline)
}

func TestProjectChartLatestMatchesLastDataPoint(t *testing.T) {
	series := ProjectChart([]domain.AlignedPrice{
		alignedAt("eggs", "2024 Avg", 3.15),
		alignedAt("eggs", "2025-01-03", 5.80),
	})
	require.NotNil(t, series.Latest)
	assert.Equal(t, series.Data[len(series.Data)-1], *series.Latest)
}
