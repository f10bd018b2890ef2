// Package core provides the HTTP chassis of the mailer: router, global
// middleware, the JSON response envelope, request validation, and the health
// endpoint. Domain handlers register themselves onto it and never touch the
// cross-cutting concerns directly.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recruitmail/internal/config"
	"recruitmail/internal/session"
)

// Server encapsulates all dependencies of the HTTP surface, allowing for
// easy injection during testing.
type Server struct {
	Config    *config.Config
	Sessions  *session.Manager
	Logger    *slog.Logger
	Validator *Validator

	// HealthProbes are run by GET /health.
	HealthProbes []HealthProbe

	// V1RouteRegistrars mount domain handlers under /v1. Populated by main to
	// avoid an import cycle between core and the handler package.
	V1RouteRegistrars []func(chi.Router)

	// Page serves the single-page UI at /. Optional.
	Page http.Handler

	router *chi.Mux
}

// NewServer initializes dependencies and prepares the router for route
// mounting. The caller mounts routes via MountRoutes after construction.
func NewServer(
	cfg *config.Config,
	sessions *session.Manager,
	logger *slog.Logger,
) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Sessions:  sessions,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases server resources. Sessions are in memory only, so there
// is nothing to flush; running passes stop when the base context passed to
// them is cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated", "live_sessions", s.Sessions.Len())
	s.Logger.Info("server shutdown complete")
	return nil
}
