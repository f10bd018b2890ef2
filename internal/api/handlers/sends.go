package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recruitmail/internal/core"
)

// SendRequest is the body of POST /v1/sends. Without confirm the call only
// validates and returns the confirmation prompt.
type SendRequest struct {
	Confirm bool `json:"confirm"`
}

// SendResponse describes a prepared or started pass.
type SendResponse struct {
	Count   int    `json:"count"`
	Prompt  string `json:"prompt,omitempty"`
	Started bool   `json:"started"`
}

// SendHandler starts send passes and reports their progress.
type SendHandler struct {
	// base outlives every request; passes stop only when it is cancelled
	// at shutdown.
	base   context.Context
	logger *slog.Logger
}

// NewSendHandler creates a SendHandler whose passes run under base.
func NewSendHandler(base context.Context, l *slog.Logger) *SendHandler {
	if l == nil {
		l = slog.Default()
	}
	return &SendHandler{base: base, logger: l}
}

// RegisterRoutes mounts POST and GET /sends.
func (h *SendHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sends", h.Create)
	r.Get("/sends", h.Status)
}

// Create handles POST /v1/sends.
//
// The flow is two-phase:
//  1. {"confirm": false} runs every precondition and returns the prompt (200).
//  2. {"confirm": true} re-runs them and starts the pass in the background
//     (202). Progress is then polled via GET /v1/sends.
//
// A failed precondition is a 400 whose details carry open_settings when the
// page should open its settings panel. A running pass is a 409.
func (h *SendHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req SendRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	if !req.Confirm {
		prompt, err := s.PrepareSend()
		if err != nil {
			core.Error(w, r, err)
			return
		}
		core.JSON(w, r, http.StatusOK, core.APIResponse{Data: SendResponse{
			Count:  s.View().SelectedCount,
			Prompt: prompt,
		}})
		return
	}

	count, err := s.StartSend(h.base)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "send pass started", "session_id", s.ID, "count", count)

	core.JSON(w, r, http.StatusAccepted, core.APIResponse{Data: SendResponse{
		Count:   count,
		Started: true,
	}})
}

// Status handles GET /v1/sends, the polling endpoint for statuses.
func (h *SendHandler) Status(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: s.Progress()})
}
