// Package pipeline implements the price alignment and aggregation pipeline:
// yearly baselines, weekly anchor alignment, basket composition, and the
// per-commodity chart projection over the aligned data.
package pipeline

import (
	"basketwatch/pkg/contracts/domain"
)

// ComputeBaseline computes the annual mean and price extrema over the
// observations that fall in the given calendar year. Baseline-label
// observations are excluded. An empty filtered set yields all-zero stats,
// which downstream code treats as "no data", never as a valid zero price.
func ComputeBaseline(observations []domain.PriceObservation, year int) domain.BaselineStats {
	var stats domain.BaselineStats
	count := 0
	for _, obs := range observations {
		if obs.Date.IsBaseline() || obs.Date.Year() != year {
			continue
		}
		if count == 0 {
			stats.Min = obs.Price
			stats.Max = obs.Price
		} else {
			if obs.Price < stats.Min {
				stats.Min = obs.Price
			}
			if obs.Price > stats.Max {
				stats.Max = obs.Price
			}
		}
		stats.AnnualMean += obs.Price
		count++
	}
	if count == 0 {
		return domain.BaselineStats{}
	}
	stats.AnnualMean /= float64(count)
	return stats
}
