// Package store wraps db.Querier with transaction support and records the
// audit trail of report fetches and infographic generations.
//
// Dependency rule: store imports db only. It never imports api, worker,
// report, ai, or infographic; callers map their own types onto the records
// defined here.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ronnie04NYC/wealth-transfer/internal/db"
)

// Recorder is what the api and worker packages need from the audit log.
// *Store implements it; Nop discards everything when no database is set.
type Recorder interface {
	RecordFetch(ctx context.Context, rec FetchRecord) error
	RecordGeneration(ctx context.Context, rec GenerationRecord) error
}

// Store holds a *sql.DB for starting transactions and a db.Querier for
// executing queries outside of transactions.
type Store struct {
	// pool is the raw connection pool, used only to begin transactions.
	pool *sql.DB

	// q is the Querier used for non-transactional calls.
	q db.Querier
}

var _ Recorder = (*Store)(nil)

// New creates a Store from a live connection pool. The pool must already be
// open and verified (e.g. via db.PingContext) before calling New.
func New(pool *sql.DB, q db.Querier) *Store {
	return &Store{pool: pool, q: q}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.ExecContext(ctx, db.Schema); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	return nil
}

// txQuerier is a function that receives a transactional Querier and returns an
// error. Returning a non-nil error causes withTx to roll back automatically.
type txQuerier func(ctx context.Context, q db.Querier) error

// withTx begins a transaction, passes a Querier scoped to that transaction to
// fn, and commits on success or rolls back on any error (including panics).
func (s *Store) withTx(ctx context.Context, fn txQuerier) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	// Roll back on panic so the connection is never left in a broken state.
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txQ := db.New(tx)

	if err := fn(ctx, txQ); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

// ─── NOP ──────────────────────────────────────────────────────────────────────

// Nop is a Recorder that drops every record.
type Nop struct{}

func (Nop) RecordFetch(context.Context, FetchRecord) error           { return nil }
func (Nop) RecordGeneration(context.Context, GenerationRecord) error { return nil }
