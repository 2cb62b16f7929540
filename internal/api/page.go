package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Ronnie04NYC/wealth-transfer/internal/infographic"
	"github.com/Ronnie04NYC/wealth-transfer/internal/report"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Data           report.Data
	Source         report.Source
	Reason         string
	FallbackFields []string
	Fallback       bool
	Partial        bool
	HasKey         bool
	Prompts        []infographic.Prompt
}

// ─── GET / ────────────────────────────────────────────────────────────────────

// handlePage renders the site. Every page load fetches a fresh dataset for
// the session. When the live call failed the page carries a visible banner.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)
	d, o := s.loadReport(r, st, true)

	data := pageData{
		Data:           d,
		Source:         o.Source,
		FallbackFields: o.Fallbacks,
		Fallback:       o.Source == report.SourceFallback,
		Partial:        o.Source == report.SourcePartial,
		HasKey:         s.images.EnsureKeyFlag(r.Context(), st),
		Prompts:        s.images.Catalog().All(),
	}
	if data.Fallback {
		data.Reason = o.Kind.String()
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("render page: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(HeaderReportSource, string(o.Source))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
