package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/tickerscope/internal/app"
)

// Server manages the HTTP server and routes
type Server struct {
	app    *app.App
	router *http.ServeMux
	server *http.Server
}

// New creates a new HTTP server with the given app
func New(application *app.App) *Server {
	s := &Server{
		app: application,
	}

	// Setup routes
	s.router = s.setupRoutes()

	// A full report may walk the whole resolver chain, including a browser session
	addr := fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withConditionalMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(application),
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// writeTimeout covers the slowest single-ticker path through every upstream plus pacing.
// Batch handlers extend their own deadline per ticker.
func writeTimeout(a *app.App) time.Duration {
	cfg := a.Config
	total := cfg.ChainBudget() + cfg.News.Timeout.Duration + cfg.Sentiment.Timeout.Duration +
		cfg.Market.Timeout.Duration + 15*time.Second
	if total < 60*time.Second {
		total = 60 * time.Second
	}
	return total
}

// Handler exposes the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.app.Config.Server.Host, s.app.Config.Server.Port)

	s.app.Logger.Info().
		Str("address", addr).
		Dur("write_timeout", s.server.WriteTimeout).
		Msg("HTTP server starting")

	s.app.Logger.Info().
		Str("health", fmt.Sprintf("http://%s/api/health", addr)).
		Str("events", fmt.Sprintf("ws://%s/ws", addr)).
		Msg("API available")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info().Msg("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.app.Logger.Info().Msg("HTTP server stopped")
	return nil
}
