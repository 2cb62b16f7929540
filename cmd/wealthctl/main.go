// Command wealthctl runs the report fetch, the wage calculator and the
// infographic generator from a terminal, using the same configuration as the
// server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ronnie04NYC/wealth-transfer/internal/ai"
	"github.com/Ronnie04NYC/wealth-transfer/internal/config"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "wealthctl",
	Short: "Inspect the wealth-transfer dataset and generate infographics",
	Long: `wealthctl talks to the same Gemini backend as the server.

Available subcommands:
  report      - Fetch the dataset and print it as JSON
  calc        - Run the wage calculator for a salary
  prompts     - List the infographic prompts
  prompt      - Print one prompt's text
  infographic - Generate an infographic and write it as PNG
  audit       - List recent fetches from the audit log`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level to stderr")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(infographicCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newLogger writes to stderr so stdout stays clean for piping.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadProvider reads the environment and builds the Gemini provider. Without
// a key it returns a provider that fails every call.
func loadProvider(ctx context.Context, logger *slog.Logger) (*config.Config, ai.Provider, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if !cfg.HasGeminiKey() {
		logger.Warn("GEMINI_API_KEY not set")
		return cfg, ai.Unavailable(nil), nil
	}

	client, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL, ai.GeminiConfig{
		TextModel:   cfg.GeminiTextModel,
		ImageModel:  cfg.GeminiImageModel,
		AspectRatio: cfg.ImageAspectRatio,
		ImageSize:   cfg.ImageSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}
