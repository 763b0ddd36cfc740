// Package metrics wires Prometheus instrumentation into the three frame
// services: a registry of common and per-service metrics, instrumented at
// each server's per-command dispatch site instead of at an RPC boundary.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServiceMetrics contains the metrics common to all three services: build
// info, command throughput/latency, and active connection count.
type ServiceMetrics struct {
	BuildInfo *prometheus.GaugeVec
	StartTime prometheus.Gauge

	ConnectionsActive prometheus.Gauge

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
}

// NewServiceMetrics creates and registers the common metric set under
// namespace.
func NewServiceMetrics(namespace string) *ServiceMetrics {
	return &ServiceMetrics{
		BuildInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		}, []string{"version", "commit", "build_time"}),
		StartTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help:      "Unix timestamp of service start time",
		}),
		ConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently open client connections",
		}),
		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frame",
			Name:      "commands_total",
			Help:      "Total number of frame commands handled",
		}, []string{"command", "status"}),
		CommandDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "frame",
			Name:      "command_duration_seconds",
			Help:      "Frame command handling duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
	}
}

// Registry bundles the common metrics with whichever service-specific
// metric set applies to serviceName, plus the /metrics and /health HTTP
// server.
type Registry struct {
	serviceName    string
	serviceVersion string
	buildTime      string
	gitCommit      string
	logger         *slog.Logger

	Service *ServiceMetrics

	DB        *DBServiceMetrics
	Developer *DeveloperServiceMetrics
	Lobby     *LobbyServiceMetrics

	server *http.Server
}

// NewRegistry creates a Registry for serviceName ("db-service",
// "developer-service", or "lobby-service"), registering the common metrics
// plus whichever service-specific set matches.
func NewRegistry(serviceName, version, buildTime, gitCommit string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	reg := &Registry{
		serviceName:    serviceName,
		serviceVersion: version,
		buildTime:      buildTime,
		gitCommit:      gitCommit,
		logger:         logger,
		Service:        NewServiceMetrics("arcade"),
	}

	switch serviceName {
	case "db-service":
		reg.DB = NewDBServiceMetrics("arcade")
	case "developer-service":
		reg.Developer = NewDeveloperServiceMetrics("arcade")
	case "lobby-service":
		reg.Lobby = NewLobbyServiceMetrics("arcade")
	}

	reg.Service.BuildInfo.WithLabelValues(version, gitCommit, buildTime).Set(1)
	reg.Service.StartTime.SetToCurrentTime()

	return reg
}

// StartMetricsServer starts the HTTP server exposing /metrics and /health
// on port. It blocks until the server stops.
func (r *Registry) StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":"%s"}`, r.serviceName)
	})

	r.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	r.logger.Info("starting metrics server", "port", port)
	return r.server.ListenAndServe()
}

// StopMetricsServer shuts the metrics HTTP server down gracefully.
func (r *Registry) StopMetricsServer(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info("stopping metrics server")
	return r.server.Shutdown(ctx)
}

// ObserveCommand records the outcome and duration of one frame command.
func (r *Registry) ObserveCommand(command string, start time.Time, ok bool) {
	status := "OK"
	if !ok {
		status = "FAIL"
	}
	r.Service.CommandsTotal.WithLabelValues(command, status).Inc()
	r.Service.CommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
}
