// Package session holds the per-page state of the site: the report loaded
// for a browser page, whether a usable credential is selected, and the
// infographics generated so far. Nothing here is persisted; a session lives
// until it has been idle for the store's TTL.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ronnie04NYC/wealth-transfer/internal/report"
)

// Status is the state of the latest generation for one prompt.
type Status string

const (
	StatusNone    Status = "none"
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Generation is a snapshot of the latest image request for a prompt.
type Generation struct {
	ID       uuid.UUID `json:"id"`
	PromptID string    `json:"prompt_id"`
	Status   Status    `json:"status"`

	// ErrorKind and Error are set when Status is StatusFailed.
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`

	// CredentialReset is true when the failure cleared the session's
	// credential flag and the page should prompt for a key again.
	CredentialReset bool `json:"credential_reset,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// State is one page session. All methods are safe for concurrent use: the
// HTTP handlers and the image workers touch the same State.
type State struct {
	ID uuid.UUID

	mu       sync.Mutex
	lastSeen time.Time

	report    *report.Data
	outcome   report.Outcome
	hasKey    bool
	keyKnown  bool
	images    map[string]string
	latestGen map[string]*Generation
}

func newState(id uuid.UUID, now time.Time) *State {
	return &State{
		ID:        id,
		lastSeen:  now,
		images:    make(map[string]string),
		latestGen: make(map[string]*Generation),
	}
}

// ─── REPORT ───────────────────────────────────────────────────────────────────

// Report returns the dataset loaded for this page and how it was fetched.
// ok is false until SetReport has been called.
func (s *State) Report() (data report.Data, outcome report.Outcome, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return report.Data{}, report.Outcome{}, false
	}
	return s.report.Clone(), s.outcome, true
}

// SetReport replaces the page dataset, as a page load does.
func (s *State) SetReport(d report.Data, o report.Outcome) {
	d = d.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = &d
	s.outcome = o
}

// ─── CREDENTIAL FLAG ──────────────────────────────────────────────────────────

// HasKey returns the credential flag. known is false until the flag has been
// initialised from the credential gate.
func (s *State) HasKey() (hasKey, known bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasKey, s.keyKnown
}

// SetHasKey sets the credential flag.
func (s *State) SetHasKey(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasKey = v
	s.keyKnown = true
}

// ─── IMAGES ───────────────────────────────────────────────────────────────────

// Image returns the last image generated for promptID.
func (s *State) Image(promptID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uri, ok := s.images[promptID]
	return uri, ok
}

// CacheImage stores uri as the image for promptID.
func (s *State) CacheImage(promptID, uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[promptID] = uri
}

// BeginGeneration records a new pending request for promptID, superseding
// any earlier one, and returns it.
func (s *State) BeginGeneration(promptID string, now time.Time) Generation {
	g := &Generation{
		ID:        uuid.New(),
		PromptID:  promptID,
		Status:    StatusPending,
		StartedAt: now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestGen[promptID] = g
	return *g
}

// CompleteGeneration marks generation id ready. A generation that has been
// superseded is ignored and false is returned.
func (s *State) CompleteGeneration(promptID string, id uuid.UUID, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.latestGen[promptID]
	if !ok || g.ID != id {
		return false
	}
	g.Status = StatusReady
	g.FinishedAt = now
	return true
}

// FailGeneration marks generation id failed. A generation that has been
// superseded is ignored and false is returned.
func (s *State) FailGeneration(promptID string, id uuid.UUID, kind, msg string, credentialReset bool, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.latestGen[promptID]
	if !ok || g.ID != id {
		return false
	}
	g.Status = StatusFailed
	g.ErrorKind = kind
	g.Error = msg
	g.CredentialReset = credentialReset
	g.FinishedAt = now
	return true
}

// Generation returns the latest request for promptID.
func (s *State) Generation(promptID string) (Generation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.latestGen[promptID]
	if !ok {
		return Generation{PromptID: promptID, Status: StatusNone}, false
	}
	return *g, true
}

func (s *State) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *State) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
