// Package web serves the single-page UI. The page is a thin client of the
// /v1 API; all state lives in the server-side session.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"recruitmail/internal/mailmerge"
	"recruitmail/internal/types"
)

//go:embed index.html
var files embed.FS

var page = template.Must(template.ParseFS(files, "index.html"))

type backendOption struct {
	ID             types.Backend
	Name           string
	RequiresAPIKey bool
}

type pageData struct {
	Title        string
	Version      string
	Placeholders []string
	Backends     []backendOption
}

// Handler renders the page. version is shown in the footer.
func Handler(version string, logger *slog.Logger) http.Handler {
	data := pageData{
		Title:        "Recruiter Email Sender",
		Version:      version,
		Placeholders: mailmerge.Tokens,
	}
	for _, b := range types.Backends {
		data.Backends = append(data.Backends, backendOption{ID: b, Name: b.DisplayName(), RequiresAPIKey: b.RequiresAPIKey()})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := page.Execute(&buf, data); err != nil {
			logger.ErrorContext(r.Context(), "render page", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(buf.Bytes())
	})
}
