package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"recruitmail/internal/core"
	"recruitmail/internal/recipients"
	"recruitmail/internal/session"
	"recruitmail/internal/types"
)

// uploadFormField is the multipart field carrying the spreadsheet.
const uploadFormField = "file"

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 2 << 20

// UploadResponse reports a successful upload.
type UploadResponse struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// SelectionRequest replaces the selection wholesale.
type SelectionRequest struct {
	IDs []int `json:"ids" validate:"max=100000"`
}

// SelectionResponse reports the selection after a change.
type SelectionResponse struct {
	SelectedIDs   []int `json:"selected_ids"`
	SelectedCount int   `json:"selected_count"`
	AllSelected   bool  `json:"all_selected"`
}

// RecipientHandler manages the recipient table: upload, selection, preview,
// and the sample workbook.
type RecipientHandler struct {
	validator *core.Validator
	logger    *slog.Logger
}

// NewRecipientHandler creates a RecipientHandler.
func NewRecipientHandler(v *core.Validator, l *slog.Logger) *RecipientHandler {
	if l == nil {
		l = slog.Default()
	}
	return &RecipientHandler{validator: v, logger: l}
}

// RegisterRoutes mounts the recipient routes.
func (h *RecipientHandler) RegisterRoutes(r chi.Router) {
	r.Route("/recipients", func(r chi.Router) {
		r.Post("/", h.Upload)
		r.Get("/sample", h.Sample)
		r.Put("/selection", h.SetSelection)
		r.Post("/toggle-all", h.ToggleAll)

		r.Route("/{id}", func(r chi.Router) {
			r.Post("/toggle", h.Toggle)
			r.Get("/preview", h.Preview)
		})
	})
}

// Upload handles POST /v1/recipients (multipart, field "file").
//
// The spreadsheet replaces the session's recipients, selects all of them,
// and clears every status. A file that cannot be read leaves the session
// untouched.
func (h *RecipientHandler) Upload(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, recipients.MaxUploadSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidFile,
				fmt.Sprintf("file must not exceed %d MB", recipients.MaxUploadSize>>20),
				err,
			))
			return
		}
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidFile, recipients.ParseFailureMessage, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField, "file is required", err))
		return
	}
	defer file.Close()

	if header.Size > recipients.MaxUploadSize {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidFile,
			fmt.Sprintf("file must not exceed %d MB", recipients.MaxUploadSize>>20),
			nil,
		))
		return
	}

	records, err := recipients.Parse(header.Filename, file)
	if err != nil {
		h.logger.WarnContext(r.Context(), "upload rejected",
			"filename", header.Filename,
			"size", header.Size,
			"error", err,
		)
		core.Error(w, r, err)
		return
	}

	if err := s.Upload(records); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "recipients uploaded",
		"session_id", s.ID,
		"filename", header.Filename,
		"count", len(records),
	)

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: UploadResponse{
		Count:   len(records),
		Message: fmt.Sprintf("Loaded %d recruiter(s)", len(records)),
	}})
}

// Sample handles GET /v1/recipients/sample, streaming the example workbook.
func (h *RecipientHandler) Sample(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+recipients.SampleFilename+`"`)
	if err := recipients.WriteSample(w); err != nil {
		// Headers may already be on the wire; the log is all that is left.
		h.logger.ErrorContext(r.Context(), "failed to write sample workbook", "error", err)
	}
}

// Toggle handles POST /v1/recipients/{id}/toggle.
func (h *RecipientHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, err := recipientID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if err := s.Toggle(id); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: selection(s.View())})
}

// ToggleAll handles POST /v1/recipients/toggle-all.
func (h *RecipientHandler) ToggleAll(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	s.ToggleAll()
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: selection(s.View())})
}

// SetSelection handles PUT /v1/recipients/selection. Unknown IDs are ignored.
func (h *RecipientHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req SelectionRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}
	s.SetSelection(req.IDs)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: selection(s.View())})
}

// Preview handles GET /v1/recipients/{id}/preview, rendering the current
// template for one recipient.
func (h *RecipientHandler) Preview(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, err := recipientID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	rendered, err := s.Preview(id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: rendered})
}

func recipientID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, types.NewAppError(
			types.ErrCodeValidationInvalidRecipient,
			fmt.Sprintf("invalid recipient id %q", raw),
			err,
		)
	}
	return id, nil
}

func selection(v session.View) SelectionResponse {
	ids := make([]int, 0, v.SelectedCount)
	for _, row := range v.Recipients {
		if row.Selected {
			ids = append(ids, row.ID)
		}
	}
	return SelectionResponse{
		SelectedIDs:   ids,
		SelectedCount: v.SelectedCount,
		AllSelected:   v.AllSelected,
	}
}
