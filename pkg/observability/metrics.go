package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	// SearchesTotal counts search requests by result format.
	SearchesTotal *prometheus.CounterVec

	// SearchDuration observes end-to-end search latency in seconds.
	SearchDuration prometheus.Histogram

	// SearchResults observes result-set sizes before pagination.
	SearchResults prometheus.Histogram

	// StoreErrorsTotal counts directory store failures by operation.
	StoreErrorsTotal *prometheus.CounterVec

	// HTTPRequestsTotal counts HTTP requests by route and status class.
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics registers the service metrics with a registerer. Pass
// prometheus.DefaultRegisterer in the binary; tests use their own registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SearchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "memberdir_searches_total",
			Help: "Total member directory searches by result format.",
		}, []string{"format"}),

		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "memberdir_search_duration_seconds",
			Help:    "End-to-end search latency.",
			Buckets: prometheus.DefBuckets,
		}),

		SearchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "memberdir_search_results",
			Help:    "Search result-set size before pagination.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),

		StoreErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "memberdir_store_errors_total",
			Help: "Directory store failures by operation.",
		}, []string{"operation"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "memberdir_http_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
	}
}
