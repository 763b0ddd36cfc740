package developer

import (
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/pixellobby/arcade/pkg/frame"
	"github.com/pixellobby/arcade/pkg/metrics"
)

// Server accepts developer connections and runs the command loop, modeled
// on internal/dbserver.Server's accept/handle shape.
type Server struct {
	svc      *Service
	log      *slog.Logger
	listener net.Listener
	metrics  *metrics.Registry
}

// NewServer wraps svc for serving over a TCP listener.
func NewServer(svc *Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log}
}

// SetMetrics attaches a metrics registry; subsequent connections and
// dispatched commands are instrumented through it.
func (s *Server) SetMetrics(reg *metrics.Registry) {
	s.metrics = reg
}

// Serve listens on addr until the listener is closed.
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.log.Info("developer: listening", "addr", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("developer: accept failed", "error", err)
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

	defer func() {
		if r := recover(); r != nil {
			log.Error("developer: connection handler panicked, closing connection", "panic", r)
		}
	}()

	c := frame.NewConn(conn)
	sess := &Session{}

	for {
		var envelope map[string]any
		if err := c.ReadJSON(&envelope); err != nil {
			if errors.Is(err, frame.ErrGracefulClose) {
				log.Debug("developer: client disconnected")
				return
			}
			log.Warn("developer: frame read error, closing connection", "error", err)
			return
		}

		typ, _ := envelope["type"].(string)
		start := time.Now()
		resp, handled, err := s.svc.dispatch(log, c, sess, typ, envelope)
		if err != nil {
			log.Warn("developer: command handling failed, closing connection", "type", typ, "error", err)
			return
		}
		if s.metrics != nil && handled {
			status, _ := resp["status"].(string)
			s.metrics.ObserveCommand(typ, start, status != "FAIL")
		}
		if !handled {
			continue // command already wrote its own response(s) to c (UPLOAD_INIT's
			// multi-phase exchange; its own metrics are recorded inside handleUploadInit)
		}
		if err := c.WriteJSON(resp); err != nil {
			log.Warn("developer: frame write error, closing connection", "error", err)
			return
		}
	}
}
