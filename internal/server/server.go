// Package server exposes the generator and the QA utilities over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"qakit/internal/core"
)

type Server struct {
	httpServer *http.Server
	logger     core.Logger
}

// New serves handler on addr with cleartext HTTP/2 enabled.
func New(addr string, handler http.Handler, logger core.Logger) *Server {
	if logger == nil {
		logger = core.NopLogger()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
