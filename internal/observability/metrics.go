package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for L0 loading.
type Metrics struct {
	Loads          *prometheus.CounterVec // labels: outcome={success,decode_error,empty_result,fetch_error,publish_error}
	RecordsKept    prometheus.Counter
	RecordsDropped prometheus.Counter
	MissingFields  prometheus.Counter
	LoadDuration   prometheus.Histogram
	DatasetRecords prometheus.Gauge
	DatasetBands   prometheus.Gauge

	// Archive metrics.
	ArchiveRequests *prometheus.CounterVec   // labels: op={list,fetch}, outcome={success,error}
	ArchiveCache    *prometheus.CounterVec   // labels: op={list,fetch}, result={hit,miss}
	ArchiveDuration *prometheus.HistogramVec // labels: op={list,fetch}

	RecordsPublished prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Loads,
		m.RecordsKept,
		m.RecordsDropped,
		m.MissingFields,
		m.LoadDuration,
		m.DatasetRecords,
		m.DatasetBands,
		m.ArchiveRequests,
		m.ArchiveCache,
		m.ArchiveDuration,
		m.RecordsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pgn_l0",
			Name:      "loads_total",
			Help:      "File loads by outcome.",
		}, []string{"outcome"}),
		RecordsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pgn_l0",
			Name:      "records_kept_total",
			Help:      "Data lines parsed into records.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pgn_l0",
			Name:      "records_dropped_total",
			Help:      "Data lines dropped for having too few fields.",
		}),
		MissingFields: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pgn_l0",
			Name:      "missing_fields_total",
			Help:      "Metadata fields coerced to missing.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pgn_l0",
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete fetch-decode-parse load.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pgn_l0",
			Name:      "dataset_records",
			Help:      "Records in the currently loaded dataset.",
		}),
		DatasetBands: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pgn_l0",
			Name:      "dataset_bands",
			Help:      "Pixel band columns in the currently loaded dataset.",
		}),
		ArchiveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pgn_l0",
			Name:      "archive_requests_total",
			Help:      "PGN archive requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		ArchiveCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pgn_l0",
			Name:      "archive_cache_total",
			Help:      "Archive cache lookups by operation and result.",
		}, []string{"op", "result"}),
		ArchiveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pgn_l0",
			Name:      "archive_request_duration_seconds",
			Help:      "PGN archive request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pgn_l0",
			Name:      "records_published_total",
			Help:      "Records written to the Kafka topic.",
		}),
	}
}
