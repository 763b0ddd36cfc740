package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DeveloperServiceMetrics covers bundle upload activity.
type DeveloperServiceMetrics struct {
	UploadsTotal    *prometheus.CounterVec
	UploadBytesSum  prometheus.Counter
	ExtractFailures prometheus.Counter
}

// NewDeveloperServiceMetrics creates and registers the Developer service
// metric set.
func NewDeveloperServiceMetrics(namespace string) *DeveloperServiceMetrics {
	return &DeveloperServiceMetrics{
		UploadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "developer",
			Name:      "uploads_total",
			Help:      "Total number of UPLOAD_INIT/UPLOAD_COMPLETE cycles by outcome",
		}, []string{"status"}),
		UploadBytesSum: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "developer",
			Name:      "upload_bytes_total",
			Help:      "Total bytes received across all bundle uploads",
		}),
		ExtractFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "developer",
			Name:      "extract_failures_total",
			Help:      "Total number of BAD_ZIP extraction failures",
		}),
	}
}
