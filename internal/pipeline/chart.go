package pipeline

import (
	"basketwatch/pkg/contracts/domain"
)

// ProjectChart reshapes one commodity's aligned prices into its display
// series: per-point period-over-period deltas, the latest point, and the
// delta of the latest point against the baseline when one exists. Input is
// expected in aligned order (baseline first, then ascending anchors).
func ProjectChart(aligned []domain.AlignedPrice) domain.ChartSeries {
	series := domain.ChartSeries{Data: make([]domain.ChartPoint, 0, len(aligned))}
	var baseline *domain.AlignedPrice

	prev := -1
	for i, ap := range aligned {
		point := domain.ChartPoint{
			Date:          ap.Date,
			AdjDate:       ap.AdjDate,
			Price:         ap.Price,
			MinPrice:      ap.MinPrice,
			MaxPrice:      ap.MaxPrice,
			FormattedDate: ap.AdjDate.Display(),
		}
		if ap.AdjDate.IsBaseline() {
			baseline = &aligned[i]
		} else {
			if prev >= 0 {
				point.Change = periodChange(series.Data[prev].Price, ap.Price)
			}
			prev = len(series.Data)
		}
		series.Data = append(series.Data, point)
	}

	if len(series.Data) > 0 {
		latest := series.Data[len(series.Data)-1]
		series.Latest = &latest

		if baseline != nil && !latest.AdjDate.IsBaseline() {
			series.VsBaseline = periodChange(baseline.Price, latest.Price)
		}
	}
	return series
}
