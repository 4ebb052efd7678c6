package pipeline

import (
	"sort"
	"strconv"

	"basketwatch/internal/dates"
	"basketwatch/pkg/contracts/domain"
)

// Aligner collapses one commodity's observations onto the weekly anchor grid.
// It must be run independently per commodity; mixing observations from
// different commodities into one anchor bucket is a correctness bug.
type Aligner struct {
	BaselineYear   int
	ProcessingYear int
}

// AlignCommodity groups the commodity's processing-year observations by
// weekly anchor date and averages same-anchor duplicates, producing exactly
// one AlignedPrice per anchor. Observations carrying the baseline label pass
// through as the baseline point; when none exist but the series metadata
// records a nonzero baseline annual mean, a baseline point is synthesized
// from it. The result is sorted ascending with the baseline point first.
func (a Aligner) AlignCommodity(commodity string, series *domain.CommoditySeries) []domain.AlignedPrice {
	baselineAnchor := domain.BaselineAnchor(a.BaselineYear)

	groups := make(map[domain.AnchorDate][]domain.PriceObservation)
	var order []domain.AnchorDate
	for _, obs := range series.Prices {
		if obs.Date.IsBaseline() {
			if obs.Date != baselineAnchor {
				continue
			}
		} else if obs.Date.Year() != a.ProcessingYear {
			// Earlier-year observations only surface through the baseline.
			continue
		}
		adj := obs.AdjDate
		if adj.IsZero() {
			adj = dates.NearestAnchor(obs.Date)
		}
		if _, seen := groups[adj]; !seen {
			order = append(order, adj)
		}
		groups[adj] = append(groups[adj], obs)
	}

	aligned := make([]domain.AlignedPrice, 0, len(groups)+1)
	for _, adj := range order {
		aligned = append(aligned, collapseGroup(commodity, adj, groups[adj]))
	}

	if _, hasBaselinePoint := groups[baselineAnchor]; !hasBaselinePoint {
		if stats, ok := series.Metadata.Baseline[strconv.Itoa(a.BaselineYear)]; ok && !stats.IsZero() {
			aligned = append(aligned, domain.AlignedPrice{
				Commodity:    commodity,
				Date:         baselineAnchor,
				AdjDate:      baselineAnchor,
				Price:        stats.AnnualMean,
				MinPrice:     stats.AnnualMean,
				MaxPrice:     stats.AnnualMean,
				IsAggregated: false,
				PriceCount:   1,
			})
		}
	}

	sort.SliceStable(aligned, func(i, j int) bool {
		return aligned[i].AdjDate.Before(aligned[j].AdjDate)
	})
	return aligned
}

// collapseGroup folds same-anchor observations into one aligned price:
// mean of prices, extrema of the reported bounds, first-encountered date
// as the representative.
func collapseGroup(commodity string, adj domain.AnchorDate, members []domain.PriceObservation) domain.AlignedPrice {
	first := members[0]
	minPrice := first.MinPrice
	if minPrice == 0 {
		minPrice = first.Price
	}
	maxPrice := first.MaxPrice
	if maxPrice == 0 {
		maxPrice = first.Price
	}

	sum := 0.0
	for _, m := range members {
		sum += m.Price

		lo := m.MinPrice
		if lo == 0 {
			lo = m.Price
		}
		if lo < minPrice {
			minPrice = lo
		}

		hi := m.MaxPrice
		if hi == 0 {
			hi = m.Price
		}
		if hi > maxPrice {
			maxPrice = hi
		}
	}

	return domain.AlignedPrice{
		Commodity:    commodity,
		Date:         first.Date,
		AdjDate:      adj,
		Price:        sum / float64(len(members)),
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		IsAggregated: len(members) > 1,
		PriceCount:   len(members),
	}
}
