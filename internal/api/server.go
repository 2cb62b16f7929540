// Package api implements the HTTP layer for the wealth-transfer site.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Ronnie04NYC/wealth-transfer/internal/infographic"
	"github.com/Ronnie04NYC/wealth-transfer/internal/report"
	"github.com/Ronnie04NYC/wealth-transfer/internal/session"
	"github.com/Ronnie04NYC/wealth-transfer/internal/store"
	"github.com/Ronnie04NYC/wealth-transfer/internal/worker"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development". Production marks the
	// session cookie Secure and answers CORS with "*".
	Env string
}

// ReportFetcher is the part of report.Fetcher the handlers use.
type ReportFetcher interface {
	FetchWithOutcome(ctx context.Context) (report.Data, report.Outcome)
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// fetcher loads the page dataset with its timeout and fallback.
	fetcher ReportFetcher

	// sessions holds per-page state keyed by the session cookie.
	sessions *session.Store

	// images owns the prompt catalog and the credential flow.
	images *infographic.Service

	// worker runs image generations in the background.
	worker worker.Enqueuer

	// recorder writes the audit log; store.Nop when no database is set.
	recorder store.Recorder

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	fetcher ReportFetcher,
	sessions *session.Store,
	images *infographic.Service,
	enqueuer worker.Enqueuer,
	recorder store.Recorder,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	if recorder == nil {
		recorder = store.Nop{}
	}
	s := &Server{
		fetcher:  fetcher,
		sessions: sessions,
		images:   images,
		worker:   enqueuer,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(30 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ── Page ──────────────────────────────────────────────────────────────────
	r.With(s.sessionMiddleware).Get("/", s.handlePage)

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/report", s.handleGetReport)

		r.Get("/infographics", s.handleListInfographics)
		r.Post("/infographics/{promptID}", s.handleGenerateInfographic)
		r.Get("/infographics/{promptID}", s.handleGetInfographic)

		r.Get("/credential", s.handleGetCredential)
		r.Post("/credential/select", s.handleSelectCredential)

		r.Post("/calculator", s.handleCalculator)
	})

	return r
}
