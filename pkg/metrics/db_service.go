package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DBServiceMetrics covers the DB service's document store: save
// latency/failures and per-collection action counts.
type DBServiceMetrics struct {
	ActionsTotal    *prometheus.CounterVec
	SaveDuration    prometheus.Histogram
	SaveErrorsTotal prometheus.Counter
	DocumentBytes   prometheus.Gauge
}

// NewDBServiceMetrics creates and registers the DB service metric set.
func NewDBServiceMetrics(namespace string) *DBServiceMetrics {
	return &DBServiceMetrics{
		ActionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "actions_total",
			Help:      "Total number of collection actions dispatched",
		}, []string{"collection", "action", "status"}),
		SaveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "save_duration_seconds",
			Help:      "Duration of the atomic tempfile+fsync+rename save",
			Buckets:   prometheus.DefBuckets,
		}),
		SaveErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "save_errors_total",
			Help:      "Total number of atomic save failures (logged and swallowed, not returned to the caller)",
		}),
		DocumentBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "document_bytes",
			Help:      "Size in bytes of the last persisted document",
		}),
	}
}
