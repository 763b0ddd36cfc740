// Command developer-service runs the Developer service described in spec
// section 4.3: authenticates developers, accepts bundle uploads, persists
// archives, records catalogue entries, lists owned games, flips active
// flags, and exposes reviews.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pixellobby/arcade/internal/dbclient"
	"github.com/pixellobby/arcade/internal/developer"
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
		configPath  = flag.String("config", "", "path to developer-service YAML config")
		addr        = flag.String("addr", "0.0.0.0:9001", "listen address (overridden by config.server if set)")
		dbAddr      = flag.String("db-addr", "127.0.0.1:9000", "DB service address (overridden by config.db_addr if set)")
		storageRoot = flag.String("storage-root", "data/bundles", "bundle storage root (overridden by config.storage_root if set)")
		metricsPort = flag.Int("metrics-port", 9091, "Prometheus /metrics and /health port")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("developer-service %s (build %s, commit %s)\n", version, buildTime, gitCommit)
		return
	}

	host, port := parseAddr(*addr)
	cfg := config.DeveloperServiceConfig{
		Server:      config.ServerConfig{Host: host, Port: port},
		DBAddr:      *dbAddr,
		StorageRoot: *storageRoot,
		Logging:     config.LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
		Monitoring:  config.MonitoringConfig{Enabled: true, Port: *metricsPort},
	}
	if *configPath != "" {
		if err := config.Load(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "developer-service: loading config: %v\n", err)
			os.Exit(1)
		}
	}

	log := logging.NewServiceLogger("developer-service", "main", logging.Config{
		Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output,
		File: (*logging.LogFile)(cfg.Logging.File),
	})

	if err := os.MkdirAll(cfg.StorageRoot, 0o755); err != nil {
		log.Error("failed to create bundle storage root", "path", cfg.StorageRoot, "error", err)
		os.Exit(1)
	}

	db := dbclient.New(cfg.DBAddr)
	svc := developer.New(db, cfg.StorageRoot, log.With("component", "developer"))

	reg := metrics.NewRegistry("developer-service", version, buildTime, gitCommit, log.With("component", "metrics"))
	svc.SetMetrics(reg.Developer)

	srv := developer.NewServer(svc, log.With("component", "server"))
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
	log.Info("developer-service started", "addr", cfg.Server.Addr(), "db_addr", cfg.DBAddr, "version", version)

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
	log.Info("developer-service stopped")
}

func parseAddr(addr string) (string, int) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			var port int
			fmt.Sscanf(addr[i+1:], "%d", &port)
			return addr[:i], port
		}
	}
	return "0.0.0.0", 9001
}
