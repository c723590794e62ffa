package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"course-matcher/internal/common/logging"
)

// WriteTimeout leaves room for a full comparison: up to 60s of page
// rendering plus the oracle call.
const WriteTimeout = 180 * time.Second

// Server represents an HTTP server
type Server struct {
	srv  *http.Server
	errs chan error
}

// New creates a new server instance
func New(handler http.Handler, port string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      WriteTimeout,
			IdleTimeout:       120 * time.Second,
		},
		errs: make(chan error, 1),
	}
}

// Start binds the listener and serves in the background. Bind errors are
// returned directly; later serve errors arrive on Errors.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}

	logging.Info("HTTP server listening", logging.Field{"addr", ln.Addr().String()})

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
		close(s.errs)
	}()
	return nil
}

// Errors reports a serve failure after Start. It is closed when the server stops.
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
