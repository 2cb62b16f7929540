package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ronnie04NYC/wealth-transfer/internal/ai"
	"github.com/Ronnie04NYC/wealth-transfer/internal/infographic"
	"github.com/Ronnie04NYC/wealth-transfer/internal/session"
	"github.com/Ronnie04NYC/wealth-transfer/internal/store"
)

// Task is one infographic request. GenerationID is the id returned by
// session.State.BeginGeneration; the result is dropped if a newer request
// for the same prompt has superseded it.
type Task struct {
	Session      *session.State
	PromptID     string
	GenerationID uuid.UUID
}

// Generator is the part of infographic.Service the job needs.
type Generator interface {
	Generate(ctx context.Context, st *session.State, promptID string) (string, error)
}

var _ Generator = (*infographic.Service)(nil)

// Job holds the dependencies for one generation. Run is called by the Runner
// with a per-job deadline.
type Job struct {
	gen      Generator
	recorder store.Recorder
	now      func() time.Time
	logger   *slog.Logger
}

// NewJob constructs a Job. A nil recorder discards audit records.
func NewJob(gen Generator, recorder store.Recorder, logger *slog.Logger) *Job {
	if recorder == nil {
		recorder = store.Nop{}
	}
	return &Job{gen: gen, recorder: recorder, now: time.Now, logger: logger}
}

// Run executes one generation:
//
//  1. Generate the image (the service caches it on the session).
//  2. Mark the session's generation ready or failed.
//  3. Write the audit record.
//
// The generation error is returned to the Runner for logging. There are no
// retries: a failed generation waits for the user to click again.
func (j *Job) Run(ctx context.Context, t Task) error {
	start := j.now()
	log := j.logger.With("session_id", t.Session.ID, "prompt_id", t.PromptID, "generation_id", t.GenerationID)

	uri, genErr := j.gen.Generate(ctx, t.Session, t.PromptID)
	finished := j.now()

	rec := store.GenerationRecord{
		ID:         t.GenerationID,
		SessionID:  t.Session.ID,
		PromptID:   t.PromptID,
		Duration:   finished.Sub(start),
		ImageBytes: len(uri),
	}

	var current bool
	if genErr == nil {
		rec.Status = string(session.StatusReady)
		current = t.Session.CompleteGeneration(t.PromptID, t.GenerationID, finished)
	} else {
		kind := ai.KindOf(genErr)
		if errors.Is(genErr, context.DeadlineExceeded) {
			kind = ai.KindTimeout
		}
		rec.Status = string(session.StatusFailed)
		rec.ErrorKind = kind.String()
		rec.ErrorMessage = genErr.Error()
		current = t.Session.FailGeneration(
			t.PromptID,
			t.GenerationID,
			kind.String(),
			infographic.FailureMessage,
			kind == ai.KindInvalidCredential,
			finished,
		)
	}
	if !current {
		log.Debug("job: generation superseded, status not updated")
	}

	// The audit write gets its own short deadline so a job that used its
	// whole budget on the provider can still be recorded.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := j.recorder.RecordGeneration(recCtx, rec); err != nil {
		log.Error("job: failed to record generation", "error", err)
	}

	return genErr
}
