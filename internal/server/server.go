// ABOUTME: HTTP API exposing phrase recording and personalization lookups
// ABOUTME: chi router over the shared core engine with graceful shutdown
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/harper/echomind/internal/config"
	"github.com/harper/echomind/internal/core"
)

// Server is the HTTP server for the echomind API
type Server struct {
	engine *core.Engine
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server over engine
func NewServer(engine *core.Engine, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		config: cfg,
		logger: logger,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/selections", s.handleRecord)
		r.Post("/personalization", s.handlePersonalize)
		r.Post("/similar", s.handleSimilar)
		r.Get("/users/{userID}/top", s.handleTop)
		r.Get("/users/{userID}/stats", s.handleStats)
	})

	return r
}

// Start starts the HTTP server and blocks until it stops. After Stop it
// returns http.ErrServerClosed without listening.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
