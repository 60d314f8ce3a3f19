// Package api serves the read-only customer and statistics HTTP API.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ecomapi/internal/config"
	"ecomapi/internal/query"
)

// Server represents the HTTP API server
type Server struct {
	router  *http.ServeMux
	server  *http.Server
	addr    string
	cfg     *config.Config
	logger  *slog.Logger
	service *query.Service
	metrics *MetricsCollector
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, service *query.Service, logger *slog.Logger) (*Server, error) {
	s := &Server{
		addr:    cfg.Addr(),
		cfg:     cfg,
		logger:  logger,
		service: service,
		router:  http.NewServeMux(),
	}
	if cfg.Metrics.Enabled {
		s.metrics = NewMetricsCollector()
	}

	s.registerRoutes()

	handler, err := s.applyMiddleware(s.router)
	if err != nil {
		return nil, err
	}
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  seconds(cfg.Server.ReadTimeoutSec),
		WriteTimeout: seconds(cfg.Server.WriteTimeoutSec),
		IdleTimeout:  seconds(cfg.Server.IdleTimeoutSec),
	}

	return s, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully")
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler with middleware in the correct order
func (s *Server) applyMiddleware(handler http.Handler) (http.Handler, error) {
	// Apply middleware in reverse order (last one wraps first)
	handler = RecoveryMiddleware(s.logger)(handler)
	if s.metrics != nil {
		handler = MetricsMiddleware(s.metrics)(handler)
	}
	handler = LoggingMiddleware(s.logger)(handler)
	if s.cfg.Server.Gzip {
		gz, err := GzipMiddleware()
		if err != nil {
			return nil, err
		}
		handler = gz(handler)
	}
	handler = RequestIDMiddleware()(handler)
	handler = CORSMiddleware()(handler)
	return handler, nil
}
