package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// Store keeps sessions in memory, keyed by id.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*State
}

// NewStore constructs a Store. A non-positive ttl uses DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*State),
	}
}

// WithClock replaces the store's time source. Used by tests.
func (st *Store) WithClock(now func() time.Time) *Store {
	st.now = now
	return st
}

// Now is the store's current time.
func (st *Store) Now() time.Time { return st.now() }

// Get returns the live session with id and marks it used.
func (st *Store) Get(id uuid.UUID) (*State, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := st.now()
	if now.Sub(s.idleSince()) > st.ttl {
		st.mu.Lock()
		delete(st.sessions, id)
		st.mu.Unlock()
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Create starts a new session with a random id.
func (st *Store) Create() *State {
	s := newState(uuid.New(), st.now())
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Resolve returns the session named by raw, or a new one when raw is empty,
// malformed or unknown. created reports which.
func (st *Store) Resolve(raw string) (s *State, created bool) {
	if id, err := uuid.Parse(raw); err == nil {
		if s, ok := st.Get(id); ok {
			return s, false
		}
	}
	return st.Create(), true
}

// Len returns the number of sessions held, expired or not.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Prune drops every session idle for longer than the TTL and returns how
// many were removed.
func (st *Store) Prune() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Run prunes on every interval until ctx is cancelled. Call it in a goroutine
// from main:
//
//	go sessions.Run(ctx, time.Minute, logger)
func (st *Store) Run(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Prune(); n > 0 {
				logger.Debug("session: pruned idle sessions", "count", n, "remaining", st.Len())
			}
		}
	}
}
