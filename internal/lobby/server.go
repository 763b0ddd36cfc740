package lobby

import (
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/pixellobby/arcade/pkg/frame"
	"github.com/pixellobby/arcade/pkg/metrics"
)

// Server accepts player connections and runs the command loop, modeled on
// internal/dbserver.Server's and internal/developer.Server's accept/handle
// shape.
type Server struct {
	lobby    *Lobby
	log      *slog.Logger
	listener net.Listener
	metrics  *metrics.Registry
}

// NewServer wraps lobby for serving over a TCP listener.
func NewServer(lobby *Lobby, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{lobby: lobby, log: log}
}

// SetMetrics attaches a metrics registry; subsequent connections and
// dispatched commands are instrumented through it, and the lobby is told
// to keep the online/room gauges in sync.
func (s *Server) SetMetrics(reg *metrics.Registry) {
	s.metrics = reg
	s.lobby.SetMetrics(reg.Lobby)
}

// Serve listens on addr until the listener is closed.
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.log.Info("lobby: listening", "addr", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("lobby: accept failed", "error", err)
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

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	if s.metrics != nil {
		s.metrics.Service.ConnectionsActive.Inc()
		defer s.metrics.Service.ConnectionsActive.Dec()
	}

	traceID := uuid.New().String()
	log := s.log.With("trace_id", traceID, "remote", conn.RemoteAddr().String())

	sess := &Session{}
	defer func() {
		if sess.Authenticated() {
			s.lobby.disconnectPlayer(sess.Username)
		}
		if r := recover(); r != nil {
			log.Error("lobby: connection handler panicked, closing connection", "panic", r)
		}
	}()

	c := frame.NewConn(conn)
	for {
		var envelope map[string]any
		if err := c.ReadJSON(&envelope); err != nil {
			if errors.Is(err, frame.ErrGracefulClose) {
				log.Debug("lobby: client disconnected")
				return
			}
			log.Warn("lobby: frame read error, closing connection", "error", err)
			return
		}

		typ, _ := envelope["type"].(string)
		start := time.Now()
		resp, handled, err := s.lobby.dispatch(log, c, sess, typ, envelope)
		if err != nil {
			log.Warn("lobby: command handling failed, closing connection", "type", typ, "error", err)
			return
		}
		if s.metrics != nil && handled {
			status, _ := resp["status"].(string)
			s.metrics.ObserveCommand(typ, start, status != "FAIL")
		}
		if !handled {
			continue
		}
		if err := c.WriteJSON(resp); err != nil {
			log.Warn("lobby: frame write error, closing connection", "error", err)
			return
		}
	}
}
