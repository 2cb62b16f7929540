package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ronnie04NYC/wealth-transfer/internal/ai"
	"github.com/Ronnie04NYC/wealth-transfer/internal/infographic"
	"github.com/Ronnie04NYC/wealth-transfer/internal/session"
	"github.com/Ronnie04NYC/wealth-transfer/internal/worker"
)

type promptResponse struct {
	infographic.Prompt
	Status   session.Status `json:"status"`
	HasImage bool           `json:"has_image"`
}

type listInfographicsResponse struct {
	HasKey  bool             `json:"has_key"`
	Prompts []promptResponse `json:"prompts"`
}

type generationResponse struct {
	Generation session.Generation `json:"generation"`
	Image      string             `json:"image,omitempty"`
}

// ─── GET /api/infographics ────────────────────────────────────────────────────

// handleListInfographics returns the catalog with this session's status for
// every prompt.
func (s *Server) handleListInfographics(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)

	prompts := s.images.Catalog().All()
	resp := listInfographicsResponse{
		HasKey:  s.images.EnsureKeyFlag(r.Context(), st),
		Prompts: make([]promptResponse, 0, len(prompts)),
	}
	for _, p := range prompts {
		g, _ := st.Generation(p.ID)
		_, hasImage := st.Image(p.ID)
		resp.Prompts = append(resp.Prompts, promptResponse{Prompt: p, Status: g.Status, HasImage: hasImage})
	}
	respond(w, http.StatusOK, resp)
}

// ─── POST /api/infographics/:promptID ─────────────────────────────────────────

// handleGenerateInfographic starts a generation and returns 202 with the
// generation id. The page polls GET /api/infographics/:promptID. Every call
// starts a new generation; an earlier one still running is superseded.
func (s *Server) handleGenerateInfographic(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)
	p, err := s.images.Catalog().Lookup(chi.URLParam(r, "promptID"))
	if errors.Is(err, infographic.ErrUnknownPrompt) {
		respondErr(w, http.StatusNotFound, "unknown prompt")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("lookup prompt: %w", err))
		return
	}

	g := st.BeginGeneration(p.ID, s.sessions.Now())
	err = s.worker.Enqueue(r.Context(), worker.Task{Session: st, PromptID: p.ID, GenerationID: g.ID})
	if err != nil {
		st.FailGeneration(p.ID, g.ID, ai.KindUnknown.String(), "generation queue is busy, try again shortly", false, s.sessions.Now())
		if errors.Is(err, worker.ErrQueueFull) || errors.Is(err, worker.ErrStopped) {
			w.Header().Set("Retry-After", "10")
			respondErr(w, http.StatusServiceUnavailable, "generation queue is busy, try again shortly")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("enqueue generation: %w", err))
		return
	}

	respond(w, http.StatusAccepted, generationResponse{Generation: g})
}

// ─── GET /api/infographics/:promptID ──────────────────────────────────────────

// handleGetInfographic reports the latest generation for a prompt.
//
//	200 ready, with the image data URI
//	202 still generating
//	404 nothing requested yet (or unknown prompt)
//	502 the provider failed; credential_reset tells the page to prompt for a key
func (s *Server) handleGetInfographic(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)
	p, err := s.images.Catalog().Lookup(chi.URLParam(r, "promptID"))
	if err != nil {
		respondErr(w, http.StatusNotFound, "unknown prompt")
		return
	}

	g, ok := st.Generation(p.ID)
	if !ok {
		respond(w, http.StatusNotFound, generationResponse{Generation: g})
		return
	}

	switch g.Status {
	case session.StatusPending:
		respond(w, http.StatusAccepted, generationResponse{Generation: g})
	case session.StatusFailed:
		respond(w, http.StatusBadGateway, generationResponse{Generation: g})
	default:
		uri, _ := st.Image(p.ID)
		respond(w, http.StatusOK, generationResponse{Generation: g, Image: uri})
	}
}
