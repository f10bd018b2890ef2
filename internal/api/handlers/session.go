// Package handlers contains the HTTP handlers of the mailer API. Every route
// runs behind the session middleware and acts on the caller's session.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recruitmail/internal/core"
	"recruitmail/internal/session"
	"recruitmail/internal/types"
)

// currentSession returns the session attached by the session middleware, or
// writes a 404 when the route was mounted without it.
func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s := session.FromContext(r.Context())
	if s == nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundSession, "session not found", nil))
		return nil, false
	}
	return s, true
}

// SessionHandler serves the whole page state in one call.
type SessionHandler struct {
	logger *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(l *slog.Logger) *SessionHandler {
	if l == nil {
		l = slog.Default()
	}
	return &SessionHandler{logger: l}
}

// RegisterRoutes mounts GET /session.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/session", h.Get)
}

// Get handles GET /v1/session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: s.View()})
}
