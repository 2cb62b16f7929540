package api

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/Ronnie04NYC/wealth-transfer/internal/report"
	"github.com/Ronnie04NYC/wealth-transfer/internal/session"
	"github.com/Ronnie04NYC/wealth-transfer/internal/store"
)

// HeaderReportSource tells the page where the dataset came from.
const HeaderReportSource = "X-Report-Source"

// ─── GET /api/report ──────────────────────────────────────────────────────────

type reportMeta struct {
	Source         report.Source `json:"source"`
	Reason         string        `json:"reason,omitempty"`
	FallbackFields []string      `json:"fallback_fields,omitempty"`
	FetchedInMs    int64         `json:"fetched_in_ms"`
}

type reportResponse struct {
	report.Data
	Meta reportMeta `json:"meta"`
}

func newReportResponse(d report.Data, o report.Outcome) reportResponse {
	meta := reportMeta{
		Source:         o.Source,
		FallbackFields: o.Fallbacks,
		FetchedInMs:    o.Duration.Milliseconds(),
	}
	if o.Source == report.SourceFallback {
		meta.Reason = o.Kind.String()
	}
	return reportResponse{Data: d, Meta: meta}
}

// handleGetReport returns the dataset loaded for this page session, fetching
// it on first use. ?refresh=true forces a new fetch. The response is always
// 200: a failed live call is absorbed into the fallback dataset and reported
// in meta.source and the X-Report-Source header.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	d, o := s.loadReport(r, sessionFrom(r), refresh)

	w.Header().Set(HeaderReportSource, string(o.Source))
	respond(w, http.StatusOK, newReportResponse(d, o))
}

// loadReport returns the session's dataset, fetching and storing a new one
// when the session has none or refresh is set.
func (s *Server) loadReport(r *http.Request, st *session.State, refresh bool) (report.Data, report.Outcome) {
	if !refresh {
		if d, o, ok := st.Report(); ok {
			return d, o
		}
	}

	d, o := s.fetcher.FetchWithOutcome(r.Context())
	st.SetReport(d, o)
	s.recordFetch(r, st, d, o)
	return d, o
}

// recordFetch writes the audit row. Failures are logged, never surfaced.
func (s *Server) recordFetch(r *http.Request, st *session.State, d report.Data, o report.Outcome) {
	rec := store.FetchRecord{
		SessionID:      st.ID,
		Source:         string(o.Source),
		FallbackFields: o.Fallbacks,
		Duration:       o.Duration,
		Meta: map[string]any{
			"request_id": logField(r).Value.String(),
			"citations":  o.Citations,
		},
	}
	if o.Source == report.SourceFallback {
		rec.ErrorKind = o.Kind.String()
		if o.Err != nil {
			rec.ErrorMessage = o.Err.Error()
		}
	}
	// Embedded citations are not grounding results.
	if o.Source != report.SourceFallback && !slices.Contains(o.Fallbacks, report.FieldSources) {
		for _, c := range d.Sources {
			rec.Citations = append(rec.Citations, store.Citation{Title: c.Title, URI: c.URI})
		}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
	defer cancel()
	if err := s.recorder.RecordFetch(ctx, rec); err != nil {
		s.logger.Error("audit: failed to record fetch", "error", err, "session_id", st.ID, logField(r))
	}
}
