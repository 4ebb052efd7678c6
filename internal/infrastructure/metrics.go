package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	PipelineRuns      *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	ObservationsAdded *prometheus.CounterVec
	FetchFailures     *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
}

// NewMetrics registers the application collectors on the given registry.
// Pass prometheus.DefaultRegisterer in production, a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "basketwatch_pipeline_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "basketwatch_pipeline_duration_seconds",
			Help:    "Wall time of full pipeline runs.",
			Buckets: prometheus.DefBuckets,
		}),
		ObservationsAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "basketwatch_observations_added_total",
			Help: "New price observations merged, by commodity.",
		}, []string{"commodity"}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "basketwatch_fetch_failures_total",
			Help: "Upstream fetch failures, by commodity.",
		}, []string{"commodity"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "basketwatch_http_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
	}
}
