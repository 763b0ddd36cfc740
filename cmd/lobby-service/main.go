// Command lobby-service runs the Lobby service: player authentication,
// catalogue browsing and download, the Room state machine, game-process
// supervision, and review routing.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pixellobby/arcade/internal/dbclient"
	"github.com/pixellobby/arcade/internal/lobby"
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
		configPath  = flag.String("config", "", "path to lobby-service YAML config")
		addr        = flag.String("addr", "0.0.0.0:9002", "listen address (overridden by config.server if set)")
		dbAddr      = flag.String("db-addr", "127.0.0.1:9000", "DB service address (overridden by config.db_addr if set)")
		storageRoot = flag.String("storage-root", "data/bundles", "bundle storage root (overridden by config.storage_root if set)")
		tokenSecret = flag.String("token-secret", "", "room token signing secret (overridden by config.token_secret if set; a random secret is generated if both are empty)")
		metricsPort = flag.Int("metrics-port", 9092, "Prometheus /metrics and /health port")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("lobby-service %s (build %s, commit %s)\n", version, buildTime, gitCommit)
		return
	}

	host, port := parseAddr(*addr)
	cfg := config.LobbyServiceConfig{
		Server:       config.ServerConfig{Host: host, Port: port},
		DBAddr:       *dbAddr,
		StorageRoot:  *storageRoot,
		TokenSecret:  *tokenSecret,
		RoomPortLow:  20000,
		RoomPortHigh: 29999,
		Logging:      config.LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
		Monitoring:   config.MonitoringConfig{Enabled: true, Port: *metricsPort},
	}
	if *configPath != "" {
		if err := config.Load(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "lobby-service: loading config: %v\n", err)
			os.Exit(1)
		}
	}

	log := logging.NewServiceLogger("lobby-service", "main", logging.Config{
		Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output,
		File: (*logging.LogFile)(cfg.Logging.File),
	})

	secret := cfg.TokenSecret
	if secret == "" {
		generated, err := randomHex(32)
		if err != nil {
			log.Error("failed to generate room token secret", "error", err)
			os.Exit(1)
		}
		secret = generated
		log.Warn("no token_secret configured; generated an ephemeral one for this process (room tokens will not validate across restarts)")
	}

	db := dbclient.New(cfg.DBAddr)
	lob := lobby.New(db, cfg.StorageRoot, []byte(secret), log.With("component", "lobby"))
	lob.SetPortRange(cfg.RoomPortLow, cfg.RoomPortHigh)

	reg := metrics.NewRegistry("lobby-service", version, buildTime, gitCommit, log.With("component", "metrics"))

	srv := lobby.NewServer(lob, log.With("component", "server"))
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
	log.Info("lobby-service started", "addr", cfg.Server.Addr(), "db_addr", cfg.DBAddr,
		"room_port_range", fmt.Sprintf("%d-%d", cfg.RoomPortLow, cfg.RoomPortHigh), "version", version)

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
	log.Info("lobby-service stopped")
}

func parseAddr(addr string) (string, int) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			var port int
			fmt.Sscanf(addr[i+1:], "%d", &port)
			return addr[:i], port
		}
	}
	return "0.0.0.0", 9002
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
