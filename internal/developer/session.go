// Package developer implements the Developer service: authenticates
// developers, accepts bundle uploads, persists archives, records catalogue
// entries, lists owned games, flips active flags, and exposes reviews.
package developer

import (
	"log/slog"

	"github.com/pixellobby/arcade/internal/dbclient"
	"github.com/pixellobby/arcade/pkg/metrics"
)

// Session holds one connection's authentication state: the authenticated
// developer username, or empty if the connection has not logged in yet.
type Session struct {
	Username string
}

// Authenticated reports whether the session has completed LOGIN.
func (s *Session) Authenticated() bool {
	return s.Username != ""
}

// Service holds the dependencies every command handler needs: the DB
// client and the bundle storage root.
type Service struct {
	db          *dbclient.Client
	storageRoot string
	log         *slog.Logger
	metrics     *metrics.DeveloperServiceMetrics
}

// New builds a Service backed by db, storing uploaded bundles under
// storageRoot.
func New(db *dbclient.Client, storageRoot string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, storageRoot: storageRoot, log: log}
}

// SetMetrics attaches a metrics set; subsequent uploads are instrumented.
func (s *Service) SetMetrics(m *metrics.DeveloperServiceMetrics) {
	s.metrics = m
}
