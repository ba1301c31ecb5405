// Package server provides HTTP server management and lifecycle handling for
// the pharmacy API. It wires the middleware chain, mounts every entity
// resource, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hmpharma/pharmacy-api/config"
	"github.com/hmpharma/pharmacy-api/logging"
	"github.com/hmpharma/pharmacy-api/metrics"
)

// RouteRegistrar mounts one resource's routes; every entity resource
// satisfies this.
type RouteRegistrar interface {
	Register(chi.Router)
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router chi.Router
	config *config.Config
}

// NewServer creates a new server instance serving the given resources and the
// health endpoint.
func NewServer(cfg *config.Config, resources []RouteRegistrar, health http.HandlerFunc) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		config: cfg,
	}

	server.setupMiddleware()
	server.setupRoutes(resources, health)

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Metrics)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(NewRateLimiter(s.config.RatePerSec, s.config.RateBurst).Middleware)
}

// setupRoutes mounts the entity resources and the operational endpoints.
func (s *Server) setupRoutes(resources []RouteRegistrar, health http.HandlerFunc) {
	for _, resource := range resources {
		resource.Register(s.router)
	}

	s.router.Get("/health", health)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// Router exposes the underlying router for tests.
func (s *Server) Router() chi.Router { return s.router }

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Error("Profiling server failed", "error", err)
		}
	}()
}
