package pipeline

import (
	"sort"

	"basketwatch/pkg/contracts/domain"
)

// CombineStrategy names a basket combination rule. Two rules were observed
// in production history; both are implemented so either can be pinned by
// configuration and targeted by tests.
type CombineStrategy string

const (
	// WeightedSum sums price*quantity over whatever commodities are present,
	// allowing partial baskets (IsComplete=false points are kept).
	WeightedSum CombineStrategy = "weighted_sum"
	// NormalizedAverage divides the weighted sum by the total weight of the
	// commodities present at that date.
	NormalizedAverage CombineStrategy = "normalized_average"
)

// Composer combines aligned per-commodity prices into basket points.
type Composer struct {
	Strategy   CombineStrategy
	Quantities map[string]float64
}

// Compose builds one basket point per distinct anchor date seen across all
// commodities. Commodities absent from Quantities or with quantity zero do
// not participate. A date where no participating commodity has a price is
// dropped entirely rather than emitted as a zero-priced point.
func (c Composer) Compose(alignedByCommodity map[string][]domain.AlignedPrice) []domain.BasketPoint {
	participants := c.participants()
	if len(participants) == 0 {
		return nil
	}

	type lookup map[domain.AnchorDate]domain.AlignedPrice
	byCommodity := make(map[string]lookup, len(participants))
	anchorSet := make(map[domain.AnchorDate]bool)
	for _, commodity := range participants {
		table := make(lookup)
		for _, ap := range alignedByCommodity[commodity] {
			table[ap.AdjDate] = ap
			anchorSet[ap.AdjDate] = true
		}
		byCommodity[commodity] = table
	}

	anchors := make([]domain.AnchorDate, 0, len(anchorSet))
	for anchor := range anchorSet {
		anchors = append(anchors, anchor)
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Before(anchors[j]) })

	points := make([]domain.BasketPoint, 0, len(anchors))
	for _, anchor := range anchors {
		prices := make(map[string]*float64, len(participants))
		var repDate domain.AnchorDate
		available := 0
		weightedSum := 0.0
		availableWeight := 0.0
		for _, commodity := range participants {
			ap, ok := byCommodity[commodity][anchor]
			if !ok {
				prices[commodity] = nil
				continue
			}
			price := ap.Price
			prices[commodity] = &price
			available++
			weightedSum += price * c.Quantities[commodity]
			availableWeight += c.Quantities[commodity]
			if repDate.IsZero() {
				repDate = ap.Date
			}
		}
		if available == 0 {
			continue
		}

		basketPrice := weightedSum
		if c.Strategy == NormalizedAverage {
			basketPrice = weightedSum / availableWeight
		}

		points = append(points, domain.BasketPoint{
			Date:                 repDate,
			AdjDate:              anchor,
			BasketPrice:          basketPrice,
			Prices:               prices,
			FormattedDate:        anchor.Display(),
			IsComplete:           available == len(participants),
			CommoditiesAvailable: available,
			TotalCommodities:     len(participants),
		})
	}

	attachBasketChanges(points)
	return points
}

// participants returns the configured commodities in deterministic order.
func (c Composer) participants() []string {
	names := make([]string, 0, len(c.Quantities))
	for name, qty := range c.Quantities {
		if qty > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// attachBasketChanges sets period-over-period deltas between consecutive
// non-baseline points. The baseline point never carries a change and never
// serves as the previous point.
func attachBasketChanges(points []domain.BasketPoint) {
	prev := -1
	for i := range points {
		if points[i].AdjDate.IsBaseline() {
			continue
		}
		if prev >= 0 {
			points[i].Change = periodChange(points[prev].BasketPrice, points[i].BasketPrice)
		}
		prev = i
	}
}

// periodChange computes the delta from prev to curr. A zero prev yields a
// zero percent to avoid dividing by a no-data price.
func periodChange(prev, curr float64) *domain.PeriodChange {
	change := &domain.PeriodChange{Amount: curr - prev}
	if prev != 0 {
		change.Percent = (curr - prev) / prev * 100
	}
	return change
}
