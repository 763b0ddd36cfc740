// Package dbserver exposes an internal/dbstore.Store over the frame codec:
// a single process serving framed {collection, action, data} requests.
package dbserver

import (
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pixellobby/arcade/internal/dbstore"
	"github.com/pixellobby/arcade/pkg/frame"
	"github.com/pixellobby/arcade/pkg/metrics"
	"github.com/pixellobby/arcade/pkg/protocol"
)

// Server accepts connections and dispatches each frame through dispatch.
// Each connection gets its own correlation id and logger for the life of
// the accept loop.
type Server struct {
	store    *dbstore.Store
	log      *slog.Logger
	listener net.Listener
	active   int64
	metrics  *metrics.Registry
}

// New wraps store for serving over addr.
func New(store *dbstore.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{store: store, log: log}
}

// SetMetrics attaches a metrics registry; subsequent connections and
// dispatched commands are instrumented through it.
func (s *Server) SetMetrics(reg *metrics.Registry) {
	s.metrics = reg
}

// Serve listens on addr and handles connections until the listener closes.
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.log.Info("dbserver: listening", "addr", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("dbserver: accept failed", "error", err)
			continue
		}
		go s.handle(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// ActiveConnections reports the number of connections currently being
// served, for metrics wiring.
func (s *Server) ActiveConnections() int64 {
	return atomic.LoadInt64(&s.active)
}

func (s *Server) handle(conn net.Conn) {
	atomic.AddInt64(&s.active, 1)
	defer atomic.AddInt64(&s.active, -1)
	defer conn.Close()
	if s.metrics != nil {
		s.metrics.Service.ConnectionsActive.Inc()
		defer s.metrics.Service.ConnectionsActive.Dec()
	}

	traceID := uuid.New().String()
	log := s.log.With("trace_id", traceID, "remote", conn.RemoteAddr().String())

	defer func() {
		if r := recover(); r != nil {
			log.Error("dbserver: connection handler panicked, closing connection", "panic", r)
		}
	}()

	c := frame.NewConn(conn)
	for {
		var req protocol.DBRequest
		if err := c.ReadJSON(&req); err != nil {
			if errors.Is(err, frame.ErrGracefulClose) {
				log.Debug("dbserver: client disconnected")
				return
			}
			log.Warn("dbserver: frame read error, closing connection", "error", err)
			return
		}

		start := time.Now()
		resp := s.dispatch(log, req)
		ok, _ := resp["ok"].(bool)
		command := req.Collection + "." + req.Action
		if s.metrics != nil {
			s.metrics.ObserveCommand(command, start, ok)
			if s.metrics.DB != nil {
				status := "ok"
				if !ok {
					status = "fail"
				}
				s.metrics.DB.ActionsTotal.WithLabelValues(req.Collection, req.Action, status).Inc()
			}
		}

		if err := c.WriteJSON(resp); err != nil {
			log.Warn("dbserver: frame write error, closing connection", "error", err)
			return
		}
	}
}
