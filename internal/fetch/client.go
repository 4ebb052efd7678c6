// Package fetch implements the statistical API clients that supply raw
// commodity price observations: the BLS timeseries API for grocery average
// prices and the EIA v2 API for weekly fuel prices.
package fetch

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"basketwatch/internal/config"
)

// RawObservation is one price point as reported by an upstream API, before
// it becomes a domain PriceObservation.
type RawObservation struct {
	Date     string
	Price    float64
	MinPrice float64
	MaxPrice float64
}

// Client fetches raw observations for one upstream series. Implementations
// fail with *errors.FetchError on non-2xx responses or a payload missing the
// expected data envelope; they never fabricate data.
type Client interface {
	FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]RawObservation, error)
	Source() string
}

// httpDoer lets tests substitute the transport.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func newHTTPClient(cfg config.UpstreamConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

func newLimiter(cfg config.UpstreamConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateBurst)
}
