package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the query
// engine.
type Metrics struct {
	QueriesTotal  *prometheus.CounterVec // labels: outcome={ok,validation_error,canceled,archive_error}
	QueryDuration prometheus.Histogram

	// Per-query site funnel.
	SitesConsidered   prometheus.Histogram
	SitesMatched      prometheus.Histogram
	SitesSkippedTotal *prometheus.CounterVec // labels: reason={filter,availability,coverage}

	// Record loading metrics.
	RecordsLoadedTotal prometheus.Counter
	RecordLoadDuration prometheus.Histogram

	// Site index cache lookups.
	IndexCacheTotal *prometheus.CounterVec // labels: result={hit,miss}

	ArchiveErrorsTotal prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.QueriesTotal,
		m.QueryDuration,
		m.SitesConsidered,
		m.SitesMatched,
		m.SitesSkippedTotal,
		m.RecordsLoadedTotal,
		m.RecordLoadDuration,
		m.IndexCacheTotal,
		m.ArchiveErrorsTotal,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "point_obs",
			Name:      "queries_total",
			Help:      "Queries served, by outcome.",
		}, []string{"outcome"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "point_obs",
			Name:      "query_duration_seconds",
			Help:      "End-to-end duration of a query, validation through assembly.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SitesConsidered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "point_obs",
			Name:      "sites_considered",
			Help:      "Candidate sites in the index per query, before filtering.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}),
		SitesMatched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "point_obs",
			Name:      "sites_matched",
			Help:      "Sites surviving all filters per query.",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}),
		SitesSkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "point_obs",
			Name:      "sites_skipped_total",
			Help:      "Sites excluded, by reason (site filter, index availability span, coverage threshold).",
		}, []string{"reason"}),
		RecordsLoadedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "point_obs",
			Name:      "records_loaded_total",
			Help:      "In-window observation records returned to callers.",
		}),
		RecordLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "point_obs",
			Name:      "record_load_duration_seconds",
			Help:      "Duration of one site's record load.",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5},
		}),
		IndexCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "point_obs",
			Name:      "index_cache_total",
			Help:      "Site index cache lookups by result.",
		}, []string{"result"}),
		ArchiveErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "point_obs",
			Name:      "archive_errors_total",
			Help:      "Archive-integrity failures (unavailable index, missing record files).",
		}),
	}
}
