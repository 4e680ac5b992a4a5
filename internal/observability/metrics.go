package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis pipeline.
type Metrics struct {
	SessionsTotal   *prometheus.CounterVec // labels: outcome={ok,error}
	SessionDuration prometheus.Histogram

	FilesLoaded *prometheus.CounterVec // labels: kind={stations,precipitation,enso,geometry}
	LoadErrors  *prometheus.CounterVec // labels: reason={empty,undecodable,schema,geometry,malformed}
	CacheLookup *prometheus.CounterVec // labels: result={hit,miss}

	RowsReshaped    prometheus.Counter
	JoinDroppedRows *prometheus.CounterVec // labels: join={station,climate,geometry}

	DegenerateStatistics *prometheus.CounterVec // labels: kind={insufficient,undefined}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SessionsTotal,
		m.SessionDuration,
		m.FilesLoaded,
		m.LoadErrors,
		m.CacheLookup,
		m.RowsReshaped,
		m.JoinDroppedRows,
		m.DegenerateStatistics,
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
		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_etl",
			Name:      "sessions_total",
			Help:      "Analysis sessions run, by outcome.",
		}, []string{"outcome"}),
		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainfall_etl",
			Name:      "session_duration_seconds",
			Help:      "Duration of a complete load-normalize-join-analyze session.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FilesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_etl",
			Name:      "files_loaded_total",
			Help:      "Input files parsed successfully, by kind.",
		}, []string{"kind"}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_etl",
			Name:      "load_errors_total",
			Help:      "Input files rejected, by failure reason.",
		}, []string{"reason"}),
		CacheLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_etl",
			Name:      "parse_cache_total",
			Help:      "Content-addressed parse cache lookups.",
		}, []string{"result"}),
		RowsReshaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_etl",
			Name:      "rows_reshaped_total",
			Help:      "Long-format observations produced by the reshaper.",
		}),
		JoinDroppedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_etl",
			Name:      "join_dropped_rows_total",
			Help:      "Rows excluded by a join, by join stage.",
		}, []string{"join"}),
		DegenerateStatistics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_etl",
			Name:      "degenerate_statistics_total",
			Help:      "Statistics replaced by a sentinel, by kind.",
		}, []string{"kind"}),
	}
}
