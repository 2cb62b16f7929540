package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/Ronnie04NYC/wealth-transfer/internal/ai"
	"github.com/Ronnie04NYC/wealth-transfer/internal/api"
	"github.com/Ronnie04NYC/wealth-transfer/internal/config"
	"github.com/Ronnie04NYC/wealth-transfer/internal/credential"
	"github.com/Ronnie04NYC/wealth-transfer/internal/db"
	"github.com/Ronnie04NYC/wealth-transfer/internal/infographic"
	"github.com/Ronnie04NYC/wealth-transfer/internal/report"
	"github.com/Ronnie04NYC/wealth-transfer/internal/session"
	"github.com/Ronnie04NYC/wealth-transfer/internal/store"
	"github.com/Ronnie04NYC/wealth-transfer/internal/worker"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// Root context cancelled by OS signal. Worker, session sweeper and HTTP
	// server all respect it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── AI ────────────────────────────────────────────────────────────────────
	// Without a key every call fails: the page serves the archived dataset and
	// image generation reports an invalid credential.
	provider := newProvider(ctx, cfg, logger)

	// ── Audit store (optional) ────────────────────────────────────────────────
	var recorder store.Recorder = store.Nop{}
	if cfg.DatabaseURL != "" {
		pool, queries, err := openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()

		st := store.New(pool, queries)
		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		recorder = st
		logger.Info("database connected, audit log enabled")
	} else {
		logger.Info("DATABASE_URL not set, audit log disabled")
	}

	// ── Report ────────────────────────────────────────────────────────────────
	fetcher := report.NewFetcher(provider, report.FetcherConfig{
		Timeout:         cfg.ReportTimeout,
		CancelOnTimeout: cfg.ReportCancelOnTimeout,
	}, logger)

	// ── Sessions ──────────────────────────────────────────────────────────────
	sessions := session.NewStore(cfg.SessionTTL)
	go sessions.Run(ctx, time.Minute, logger)

	// ── Infographics ──────────────────────────────────────────────────────────
	images := infographic.NewService(
		infographic.DefaultCatalog(),
		provider,
		credential.NewStaticGate(cfg.HasGeminiKey()),
		infographic.NewLimiter(cfg.ImageRPM),
		logger,
	)

	// ── Worker ────────────────────────────────────────────────────────────────
	job := worker.NewJob(images, recorder, logger)
	runner := worker.NewRunner(job, worker.RunnerConfig{
		Workers:    cfg.ImageWorkers,
		QueueSize:  cfg.ImageWorkers * 16,
		JobTimeout: cfg.ImageJobTimeout,
	}, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		fetcher,
		sessions,
		images,
		runner, // *Runner satisfies worker.Enqueuer
		recorder,
		api.Config{Env: cfg.Env},
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the worker pool in a background goroutine. It blocks until ctx is done.
	runnerDone := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(runnerDone)
	}()

	// Start the HTTP server in a background goroutine.
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Give in-flight HTTP requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	select {
	case <-runnerDone:
	case <-shutdownCtx.Done():
		logger.Warn("worker pool did not stop in time")
	}

	logger.Info("shutdown complete")
	return nil
}

// newProvider returns the Gemini client, or a provider that fails every call
// when no key is configured or the client cannot be built.
func newProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) ai.Provider {
	if !cfg.HasGeminiKey() {
		logger.Warn("ai: GEMINI_API_KEY not set, serving archived data only")
		return ai.Unavailable(nil)
	}

	client, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL, ai.GeminiConfig{
		TextModel:   cfg.GeminiTextModel,
		ImageModel:  cfg.GeminiImageModel,
		AspectRatio: cfg.ImageAspectRatio,
		ImageSize:   cfg.ImageSize,
	})
	if err != nil {
		logger.Error("ai: gemini client unavailable", "error", err)
		return ai.Unavailable(err)
	}
	logger.Info("ai: using Gemini", "text_model", cfg.GeminiTextModel, "image_model", cfg.GeminiImageModel)
	return client
}

// openDB opens the connection pool and verifies it is reachable.
func openDB(ctx context.Context, dsn string) (*sql.DB, *db.Queries, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}

	pool.SetMaxOpenConns(10)
	pool.SetMaxIdleConns(5)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	return pool, db.New(pool), nil
}
