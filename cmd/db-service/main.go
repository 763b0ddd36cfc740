// Command db-service runs the DB service: a single process serving framed
// {collection, action, data} requests against the durable JSON document
// store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pixellobby/arcade/internal/dbserver"
	"github.com/pixellobby/arcade/internal/dbstore"
	"github.com/pixellobby/arcade/pkg/config"
	"github.com/pixellobby/arcade/pkg/logging"
	"github.com/pixellobby/arcade/pkg/metrics"
)

var (
	version   string = "dev"
	buildTime string = "unknown"
	gitCommit string = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to db-service YAML config")
		addr        = flag.String("addr", "0.0.0.0:9000", "listen address (overridden by config.server if set)")
		storePath   = flag.String("store", "data/db/store.json", "path to the durable JSON document (overridden by config.store_path if set)")
		metricsPort = flag.Int("metrics-port", 9090, "Prometheus /metrics and /health port (overridden by config.monitoring if set)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("db-service %s (build %s, commit %s)\n", version, buildTime, gitCommit)
		return
	}

	host, port := parseAddr(*addr)
	cfg := config.DBServiceConfig{
		Server:     config.ServerConfig{Host: host, Port: port},
		StorePath:  *storePath,
		Logging:    config.LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
		Monitoring: config.MonitoringConfig{Enabled: true, Port: *metricsPort},
	}
	if *configPath != "" {
		if err := config.Load(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "db-service: loading config: %v\n", err)
			os.Exit(1)
		}
	}

	log := logging.NewServiceLogger("db-service", "main", logging.Config{
		Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output,
		File: (*logging.LogFile)(cfg.Logging.File),
	})

	store, err := dbstore.Open(cfg.StorePath, log.With("component", "dbstore"))
	if err != nil {
		log.Error("failed to open document store", "path", cfg.StorePath, "error", err)
		os.Exit(1)
	}

	reg := metrics.NewRegistry("db-service", version, buildTime, gitCommit, log.With("component", "metrics"))
	store.SetMetrics(reg.DB)

	srv := dbserver.New(store, log.With("component", "dbserver"))
	srv.SetMetrics(reg)

	if cfg.Monitoring.Enabled {
		go func() {
			if err := reg.StartMetricsServer(cfg.Monitoring.Port); err != nil {
				log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(cfg.Server.Addr()) }()
	log.Info("db-service started", "addr", cfg.Server.Addr(), "store", cfg.StorePath, "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Close()
	_ = reg.StopMetricsServer(shutdownCtx)
	log.Info("db-service stopped")
}

// parseAddr splits "host:port" as produced by flag default/override; falls
// back to 0.0.0.0:9000 shape on malformed input.
func parseAddr(addr string) (string, int) {
	host, portStr, err := splitHostPort(addr)
	if err != nil {
		return "0.0.0.0", 9000
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return host, port
}

func splitHostPort(addr string) (string, string, error) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("db-service: invalid address %q", addr)
}
