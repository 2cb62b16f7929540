package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/Ronnie04NYC/wealth-transfer/internal/db"
)

// ─── INPUT TYPES ─────────────────────────────────────────────────────────────

// Citation is one grounding source kept for a fetch.
type Citation struct {
	Title string
	URI   string
}

// FetchRecord is the outcome of one report fetch.
type FetchRecord struct {
	// SessionID is uuid.Nil for fetches outside a page session (the CLI).
	SessionID      uuid.UUID
	Source         string // live, partial or fallback
	ErrorKind      string // empty unless Source is fallback
	ErrorMessage   string
	FallbackFields []string
	Citations      []Citation
	Duration       time.Duration

	// Meta is stored as JSONB alongside the row. May be nil.
	Meta map[string]any
}

// GenerationRecord is the outcome of one infographic generation.
type GenerationRecord struct {
	ID           uuid.UUID
	SessionID    uuid.UUID
	PromptID     string
	Status       string // ready or failed
	ErrorKind    string
	ErrorMessage string
	ImageBytes   int
	Duration     time.Duration
}

// FetchEntry is one logged fetch as read back from the audit tables.
type FetchEntry struct {
	ID             uuid.UUID
	SessionID      uuid.UUID
	Source         string
	ErrorKind      string
	ErrorMessage   string
	FallbackFields []string
	Citations      []Citation
	Duration       time.Duration
	CreatedAt      time.Time
}

// ─── METHODS ─────────────────────────────────────────────────────────────────

// RecordFetch writes the fetch row and its citations in one transaction, so
// a log entry never appears without the sources it was served with.
func (s *Store) RecordFetch(ctx context.Context, rec FetchRecord) error {
	meta, err := nullJSON(rec.Meta)
	if err != nil {
		return fmt.Errorf("RecordFetch: marshal meta: %w", err)
	}

	fallbackFields := rec.FallbackFields
	if fallbackFields == nil {
		fallbackFields = []string{}
	}

	return s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		row, err := q.InsertFetchLog(ctx, db.InsertFetchLogParams{
			ID:             uuid.New(),
			SessionID:      uuid.NullUUID{UUID: rec.SessionID, Valid: rec.SessionID != uuid.Nil},
			Source:         rec.Source,
			ErrorKind:      nullString(rec.ErrorKind),
			ErrorMessage:   nullString(rec.ErrorMessage),
			FallbackFields: fallbackFields,
			DurationMs:     int32(rec.Duration.Milliseconds()),
			Meta:           meta,
		})
		if err != nil {
			return fmt.Errorf("RecordFetch: insert log: %w", err)
		}

		for i, c := range rec.Citations {
			if err := q.InsertFetchCitation(ctx, db.InsertFetchCitationParams{
				FetchID:  row.ID,
				Position: int32(i),
				Title:    c.Title,
				Uri:      c.URI,
			}); err != nil {
				return fmt.Errorf("RecordFetch: insert citation %d: %w", i, err)
			}
		}
		return nil
	})
}

// RecordGeneration writes one generation outcome. Single-query write, no
// transaction needed.
func (s *Store) RecordGeneration(ctx context.Context, rec GenerationRecord) error {
	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := s.q.InsertImageGeneration(ctx, db.InsertImageGenerationParams{
		ID:           id,
		SessionID:    rec.SessionID,
		PromptID:     rec.PromptID,
		Status:       rec.Status,
		ErrorKind:    nullString(rec.ErrorKind),
		ErrorMessage: nullString(rec.ErrorMessage),
		ImageBytes:   int32(rec.ImageBytes),
		DurationMs:   int32(rec.Duration.Milliseconds()),
	})
	if err != nil {
		return fmt.Errorf("RecordGeneration: %w", err)
	}
	return nil
}

// RecentFetches returns the newest limit fetches, newest first, each with its
// citations in the order they were served.
func (s *Store) RecentFetches(ctx context.Context, limit int) ([]FetchEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.q.ListRecentFetchLogs(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("RecentFetches: list logs: %w", err)
	}

	out := make([]FetchEntry, 0, len(rows))
	for _, r := range rows {
		cites, err := s.q.ListFetchCitations(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("RecentFetches: list citations for %s: %w", r.ID, err)
		}
		e := FetchEntry{
			ID:             r.ID,
			SessionID:      r.SessionID.UUID,
			Source:         r.Source,
			ErrorKind:      r.ErrorKind.String,
			ErrorMessage:   r.ErrorMessage.String,
			FallbackFields: r.FallbackFields,
			Duration:       time.Duration(r.DurationMs) * time.Millisecond,
			CreatedAt:      r.CreatedAt,
		}
		for _, c := range cites {
			e.Citations = append(e.Citations, Citation{Title: c.Title, URI: c.Uri})
		}
		out = append(out, e)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullJSON(v map[string]any) (pqtype.NullRawMessage, error) {
	if len(v) == 0 {
		return pqtype.NullRawMessage{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: b, Valid: true}, nil
}
