package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/config"
)

// Server exposes the global registry over HTTP for Prometheus to scrape
type Server struct {
	httpServer *http.Server
}

// NewServer creates a metrics server from configuration
func NewServer(cfg *config.MetricsConfig) *Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens in the background; bind errors are returned immediately
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind metrics server: %w", err)
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("Metrics server stopped: %v\n", err)
		}
	}()
	return nil
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
