package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recruitmail/internal/core"
	"recruitmail/internal/mailmerge"
	"recruitmail/internal/types"
)

// TemplateRequest is the body of PUT /v1/template.
type TemplateRequest struct {
	Subject string `json:"subject" validate:"max=998,no_crlf"`
	Body    string `json:"body" validate:"max=100000"`
}

// ValidationWarnings flags placeholder-shaped tokens that will be sent as
// literal text.
func (t TemplateRequest) ValidationWarnings() []string {
	unknown := mailmerge.UnknownPlaceholders(t.Subject + "\n" + t.Body)
	if len(unknown) == 0 {
		return nil
	}
	warnings := make([]string, len(unknown))
	for i, tok := range unknown {
		warnings[i] = fmt.Sprintf("%s is not a recognized placeholder and will be sent as written", tok)
	}
	return warnings
}

// TemplateResponse is the stored template plus the placeholders it may use.
type TemplateResponse struct {
	types.EmailTemplate
	Placeholders []string `json:"placeholders"`
}

// TemplateHandler reads and replaces the session template.
type TemplateHandler struct {
	validator *core.Validator
	logger    *slog.Logger
}

// NewTemplateHandler creates a TemplateHandler.
func NewTemplateHandler(v *core.Validator, l *slog.Logger) *TemplateHandler {
	if l == nil {
		l = slog.Default()
	}
	return &TemplateHandler{validator: v, logger: l}
}

// RegisterRoutes mounts GET and PUT /template.
func (h *TemplateHandler) RegisterRoutes(r chi.Router) {
	r.Get("/template", h.Get)
	r.Put("/template", h.Update)
}

// Get handles GET /v1/template.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: TemplateResponse{
		EmailTemplate: s.Template(),
		Placeholders:  mailmerge.Tokens,
	}})
}

// Update handles PUT /v1/template. Unknown placeholders are accepted and
// reported as warnings.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req TemplateRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	result := h.validator.ValidateStructWithWarnings(req)
	if !result.IsValid() {
		core.Error(w, r, h.validator.ValidateStruct(req))
		return
	}

	tmpl := types.EmailTemplate{Subject: req.Subject, Body: req.Body}
	s.SetTemplate(tmpl)

	resp := core.APIResponse{Data: TemplateResponse{EmailTemplate: tmpl, Placeholders: mailmerge.Tokens}}
	if len(result.Warnings) > 0 {
		resp.Meta = &core.ResponseMeta{Warnings: result.Warnings}
	}
	core.JSON(w, r, http.StatusOK, resp)
}
