package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recruitmail/internal/core"
	"recruitmail/internal/types"
)

// mailgunDomainWarning is attached when Mailgun is chosen on a server that
// was started without MAILGUN_DOMAIN.
const mailgunDomainWarning = "The server has no Mailgun domain configured; Mailgun sends will be rejected until MAILGUN_DOMAIN is set"

// ConfigHandler reads and replaces the session's delivery settings.
// Credentials are never echoed back in clear text.
type ConfigHandler struct {
	validator       *core.Validator
	logger          *slog.Logger
	mailgunDomainOK bool
}

// NewConfigHandler creates a ConfigHandler. mailgunDomainOK reports whether
// the operator configured a Mailgun sending domain.
func NewConfigHandler(v *core.Validator, l *slog.Logger, mailgunDomainOK bool) *ConfigHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ConfigHandler{validator: v, logger: l, mailgunDomainOK: mailgunDomainOK}
}

// RegisterRoutes mounts GET and PUT /config.
func (h *ConfigHandler) RegisterRoutes(r chi.Router) {
	r.Get("/config", h.Get)
	r.Put("/config", h.Update)
}

// Get handles GET /v1/config.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: s.Config(), Meta: h.meta(s.Config())})
}

// Update handles PUT /v1/config.
//
// The body is the full settings object. Secrets sent back as the redacted
// placeholder keep their stored value, so the page can round-trip what GET
// returned. Sender and credential completeness is not enforced here; it is
// checked when a send is requested.
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req types.DeliveryConfig
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	saved := s.SetConfig(req)
	h.logger.InfoContext(r.Context(), "delivery settings updated",
		"session_id", s.ID,
		"backend", saved.Backend,
		"api_key_set", saved.APIKey != "",
		"smtp_pass_set", saved.SMTP.Pass != "",
	)

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: saved, Meta: h.meta(saved)})
}

func (h *ConfigHandler) meta(cfg types.DeliveryConfig) *core.ResponseMeta {
	if cfg.Backend == types.BackendMailgun && !h.mailgunDomainOK {
		return &core.ResponseMeta{Warnings: []string{mailgunDomainWarning}}
	}
	return nil
}
