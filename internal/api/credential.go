package api

import (
	"errors"
	"net/http"

	"github.com/Ronnie04NYC/wealth-transfer/internal/credential"
)

type credentialResponse struct {
	HasKey bool `json:"has_key"`
}

// ─── GET /api/credential ──────────────────────────────────────────────────────

func (s *Server) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, credentialResponse{HasKey: s.images.EnsureKeyFlag(r.Context(), sessionFrom(r))})
}

// ─── POST /api/credential/select ──────────────────────────────────────────────

// handleSelectCredential opens key selection. Success is assumed without a
// re-check, matching what the generate flow does.
func (s *Server) handleSelectCredential(w http.ResponseWriter, r *http.Request) {
	if err := s.images.SelectKey(r.Context(), sessionFrom(r)); err != nil {
		if errors.Is(err, credential.ErrSelectionUnavailable) {
			respondErr(w, http.StatusNotImplemented, "key selection is not available on this server")
			return
		}
		s.respondInternalErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, credentialResponse{HasKey: true})
}
