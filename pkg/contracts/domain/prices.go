package domain

import (
	"sort"
	"time"
)

// PriceObservation is a single reported price for one commodity. Date is the
// calendar date the price was observed (or the baseline label for annual
// averages); AdjDate is the memoized weekly anchor computed during merge.
type PriceObservation struct {
	Date       AnchorDate `json:"date"`
	Price      float64    `json:"price"`
	MinPrice   float64    `json:"minPrice"`
	MaxPrice   float64    `json:"maxPrice"`
	StoreCount int        `json:"storeCount,omitempty"`
	AdjDate    AnchorDate `json:"adjDate"`
}

// BaselineStats holds the annual mean and price extrema for one year of
// observations. An all-zero value means "no data for that year", never a
// valid zero price.
type BaselineStats struct {
	AnnualMean float64 `json:"annualMean"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// IsZero reports whether the stats carry no data.
func (b BaselineStats) IsZero() bool {
	return b.AnnualMean == 0 && b.Min == 0 && b.Max == 0
}

// SeriesMetadata describes one commodity's series: provenance per year and
// the computed yearly baselines. Year keys are 4-digit strings.
type SeriesMetadata struct {
	LastUpdated time.Time                `json:"lastUpdated"`
	DataSource  map[string]string        `json:"dataSource,omitempty"`
	Baseline    map[string]BaselineStats `json:"baseline,omitempty"`
	Name        string                   `json:"name,omitempty"`
	SeriesID    string                   `json:"seriesId,omitempty"`
}

// CommoditySeries is the stored collection of observations for one commodity.
// Prices are unique by Date and sorted ascending with the baseline label first.
type CommoditySeries struct {
	Metadata SeriesMetadata     `json:"metadata"`
	Prices   []PriceObservation `json:"prices"`
}

// HasDate reports whether an observation with the exact date already exists.
func (s *CommoditySeries) HasDate(d AnchorDate) bool {
	for _, p := range s.Prices {
		if p.Date == d {
			return true
		}
	}
	return false
}

// SortObservations orders observations ascending by date, baseline label
// pinned first.
func SortObservations(prices []PriceObservation) {
	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].Date.Before(prices[j].Date)
	})
}

// AlignedPrice is one commodity's observations collapsed onto a single weekly
// anchor date. Date is a representative contributing date, not canonical.
type AlignedPrice struct {
	Commodity    string     `json:"commodity"`
	Date         AnchorDate `json:"date"`
	AdjDate      AnchorDate `json:"adjDate"`
	Price        float64    `json:"price"`
	MinPrice     float64    `json:"minPrice"`
	MaxPrice     float64    `json:"maxPrice"`
	IsAggregated bool       `json:"isAggregated"`
	PriceCount   int        `json:"priceCount"`
}

// PeriodChange is a period-over-period delta.
type PeriodChange struct {
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// BasketPoint is the combined basket value across commodities at one anchor
// date. Prices maps commodity to its aligned price, nil when the commodity
// has no observation at that anchor.
type BasketPoint struct {
	Date                 AnchorDate          `json:"date"`
	AdjDate              AnchorDate          `json:"adjDate"`
	BasketPrice          float64             `json:"basketPrice"`
	Prices               map[string]*float64 `json:"prices"`
	FormattedDate        string              `json:"formattedDate"`
	IsComplete           bool                `json:"isComplete"`
	Change               *PeriodChange       `json:"change,omitempty"`
	CommoditiesAvailable int                 `json:"commoditiesAvailable,omitempty"`
	TotalCommodities     int                 `json:"totalCommodities,omitempty"`
}

// ChartPoint is one commodity's aligned price reshaped for display.
type ChartPoint struct {
	Date          AnchorDate    `json:"date"`
	AdjDate       AnchorDate    `json:"adjDate"`
	Price         float64       `json:"price"`
	MinPrice      float64       `json:"minPrice"`
	MaxPrice      float64       `json:"maxPrice"`
	FormattedDate string        `json:"formattedDate"`
	Change        *PeriodChange `json:"change,omitempty"`
}

// ChartSeries is the per-commodity display series with its latest point and
// the delta of that point against the baseline.
type ChartSeries struct {
	Data       []ChartPoint  `json:"data"`
	Latest     *ChartPoint   `json:"latest,omitempty"`
	VsBaseline *PeriodChange `json:"vsBaseline,omitempty"`
}

// CommodityMeta is a commodity's series metadata plus its aligned point count,
// as embedded in the combined document.
type CommodityMeta struct {
	SeriesMetadata
	PriceCount int `json:"priceCount"`
}

// LatestSummary summarizes the most recent basket point.
type LatestSummary struct {
	BasketPrice float64       `json:"basketPrice"`
	Date        AnchorDate    `json:"date"`
	VsBaseline  *PeriodChange `json:"vsBaseline,omitempty"`
}

// CombinedMetadata heads the persisted combined document.
type CombinedMetadata struct {
	LastProcessed time.Time                `json:"lastProcessed"`
	Quantities    map[string]float64       `json:"quantities"`
	Commodities   map[string]CommodityMeta `json:"commodities"`
	Latest        *LatestSummary           `json:"latest,omitempty"`
}

// CombinedDataset is the full pipeline output, persisted as one document and
// returned as-is to callers.
type CombinedDataset struct {
	Metadata      CombinedMetadata       `json:"metadata"`
	AlignedPrices []AlignedPrice         `json:"alignedPrices"`
	Basket        []BasketPoint          `json:"basket"`
	Charts        map[string]ChartSeries `json:"charts"`
}
