package http

import (
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type indexPageData struct {
	InsightsEnabled bool
}

// GetIndex handles GET /. Serves the single-input search page; the form
// fetches /weather/{city} and renders the report client-side.
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexPageData{InsightsEnabled: h.insightsEnabled}
	if err := indexTemplate.Execute(w, data); err != nil {
		h.logger.Error("render index", zap.Error(err))
	}
}
