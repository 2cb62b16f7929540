// Package worker runs infographic generations in the background. It is
// decoupled from the HTTP layer: the api package holds a worker.Enqueuer
// interface and calls Enqueue. It never imports the concrete Runner.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueFull is returned by Enqueue when every worker is busy and the
// buffer is full.
var ErrQueueFull = errors.New("worker: queue is full")

// ErrStopped is returned by Enqueue after the Runner has shut down.
var ErrStopped = errors.New("worker: runner stopped")

// ─── ENQUEUER INTERFACE ───────────────────────────────────────────────────────

// Enqueuer is the narrow interface the api package uses to hand off a
// generation. In tests, any struct with an Enqueue method satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, t Task) error
}

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner. Zero fields take the
// values from DefaultRunnerConfig.
type RunnerConfig struct {
	// Workers is the number of concurrent job goroutines. Default: 2.
	Workers int

	// QueueSize is the channel buffer. Default: Workers*4.
	QueueSize int

	// JobTimeout is the per-job context deadline. Set this longer than the
	// image model's p99 latency. Default: 3 minutes.
	JobTimeout time.Duration
}

// DefaultRunnerConfig returns safe production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:    2,
		JobTimeout: 3 * time.Minute,
	}
}

// Runner manages a pool of worker goroutines fed by an in-process channel.
type Runner struct {
	job    *Job
	cfg    RunnerConfig
	logger *slog.Logger

	queue chan Task
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewRunner constructs a Runner. Call Start to begin processing.
func NewRunner(job *Job, cfg RunnerConfig, logger *slog.Logger) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 4
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}

	return &Runner{
		job:    job,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan Task, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue pushes a task onto the channel. If the channel is full it returns
// ErrQueueFull rather than blocking the HTTP response.
func (r *Runner) Enqueue(_ context.Context, t Task) error {
	select {
	case <-r.done:
		return ErrStopped
	default:
	}

	select {
	case r.queue <- t:
		r.logger.Info("worker: enqueued generation",
			"session_id", t.Session.ID,
			"prompt_id", t.PromptID,
			"generation_id", t.GenerationID,
		)
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the worker pool. It blocks until ctx is cancelled and every
// in-flight job has returned. Call it in a goroutine from main:
//
//	go runner.Start(ctx)
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("worker: starting", "workers", r.cfg.Workers, "job_timeout", r.cfg.JobTimeout)

	for i := range r.cfg.Workers {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	<-ctx.Done()
	close(r.done)
	r.wg.Wait()
	r.logger.Info("worker: stopped")
}

// work is the inner loop for each worker goroutine.
func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)
	log.Debug("worker: goroutine started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("worker: goroutine stopping")
			return
		case t := <-r.queue:
			r.run(ctx, t, log)
		}
	}
}

// run executes one task with the per-job deadline. Jobs are not retried.
func (r *Runner) run(ctx context.Context, t Task, log *slog.Logger) {
	jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
	defer cancel()

	if err := r.job.Run(jobCtx, t); err != nil {
		log.Warn("worker: generation failed",
			"session_id", t.Session.ID,
			"prompt_id", t.PromptID,
			"error", err,
		)
		return
	}
	log.Info("worker: generation completed", "session_id", t.Session.ID, "prompt_id", t.PromptID)
}
