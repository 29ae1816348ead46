package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dataset preparation pipeline.
type Metrics struct {
	RowsRead      prometheus.Counter
	RowsDropped   *prometheus.CounterVec // labels: stage={numeric,coordinate}
	DatasetRows   prometheus.Gauge
	DatasetBuilds *prometheus.CounterVec // labels: result={ok,not_found,schema_error,parse_error}
	DatasetCache  *prometheus.CounterVec // labels: result={hit,miss}
	BuildDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,empty,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Sink metrics.
	SinkPublishes *prometheus.CounterVec // labels: sink, result={ok,error}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsRead,
		m.RowsDropped,
		m.DatasetRows,
		m.DatasetBuilds,
		m.DatasetCache,
		m.BuildDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.SinkPublishes,
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
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "threat_etl",
			Name:      "rows_read_total",
			Help:      "Total data rows read from the source file across builds.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threat_etl",
			Name:      "rows_dropped_total",
			Help:      "Rows dropped during preparation, by filtering stage.",
		}, []string{"stage"}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "threat_etl",
			Name:      "dataset_rows",
			Help:      "Rows in the currently held dataset.",
		}),
		DatasetBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threat_etl",
			Name:      "dataset_builds_total",
			Help:      "Dataset build attempts by terminal result.",
		}, []string{"result"}),
		DatasetCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threat_etl",
			Name:      "dataset_cache_total",
			Help:      "Memoized build lookups by result.",
		}, []string{"result"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "threat_etl",
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete parse-clean-geocode build.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threat_etl",
			Name:      "geocode_requests_total",
			Help:      "Outbound geocoding lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threat_etl",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "threat_etl",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SinkPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threat_etl",
			Name:      "sink_publishes_total",
			Help:      "Dataset publishes to downstream sinks by result.",
		}, []string{"sink", "result"}),
	}
}
