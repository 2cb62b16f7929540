package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Ronnie04NYC/wealth-transfer/internal/ai"
	"github.com/Ronnie04NYC/wealth-transfer/internal/calculator"
	"github.com/Ronnie04NYC/wealth-transfer/internal/credential"
	"github.com/Ronnie04NYC/wealth-transfer/internal/infographic"
	"github.com/Ronnie04NYC/wealth-transfer/internal/report"
	"github.com/Ronnie04NYC/wealth-transfer/internal/session"
)

// ─── report ───────────────────────────────────────────────────────────────────

var reportNoCancel bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch the dataset and print it as JSON",
	Long: `Runs the live data call with the configured timeout. When it fails the
archived dataset is printed instead; the source line on stderr says which.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		cfg, provider, err := loadProvider(cmd.Context(), logger)
		if err != nil {
			return err
		}

		fetcher := report.NewFetcher(provider, report.FetcherConfig{
			Timeout:         cfg.ReportTimeout,
			CancelOnTimeout: !reportNoCancel,
		}, logger)
		d, o := fetcher.FetchWithOutcome(cmd.Context())

		fmt.Fprintln(cmd.ErrOrStderr(), describeOutcome(o))
		return writeJSON(cmd.OutOrStdout(), d)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportNoCancel, "no-cancel", false, "let the live call run on after the timeout")
}

// describeOutcome renders one status line for a fetch.
func describeOutcome(o report.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "source=%s duration=%s", o.Source, o.Duration.Round(1e6))
	switch o.Source {
	case report.SourceFallback:
		fmt.Fprintf(&b, " reason=%s", o.Kind)
		if o.Err != nil {
			fmt.Fprintf(&b, " error=%q", o.Err.Error())
		}
	case report.SourcePartial:
		fmt.Fprintf(&b, " fallback_fields=%s", strings.Join(o.Fallbacks, ","))
	}
	fmt.Fprintf(&b, " citations=%d", o.Citations)
	return b.String()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ─── calc ─────────────────────────────────────────────────────────────────────

var calcLive bool

var calcCmd = &cobra.Command{
	Use:   "calc <salary>",
	Short: "Run the wage calculator for a salary",
	Long: `Estimates what salary would be had pay kept pace with productivity. Uses
the archived series unless --live is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		salary, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", ""), 64)
		if err != nil {
			return fmt.Errorf("salary %q is not a number", args[0])
		}

		series := report.Fallback().ProductivityVsWages
		if calcLive {
			logger := newLogger()
			cfg, provider, err := loadProvider(cmd.Context(), logger)
			if err != nil {
				return err
			}
			f := report.NewFetcher(provider, report.FetcherConfig{Timeout: cfg.ReportTimeout, CancelOnTimeout: true}, logger)
			series = f.Fetch(cmd.Context()).ProductivityVsWages
		}

		res, err := calculator.Calculate(salary, series)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	calcCmd.Flags().BoolVar(&calcLive, "live", false, "fetch the live productivity series first")
}

// ─── prompts / prompt ─────────────────────────────────────────────────────────

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the infographic prompts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listPrompts(cmd.OutOrStdout(), infographic.DefaultCatalog())
	},
}

func listPrompts(w io.Writer, c *infographic.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDESCRIPTION")
	for _, p := range c.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Title, p.Description)
	}
	return tw.Flush()
}

var promptCmd = &cobra.Command{
	Use:   "prompt <id>",
	Short: "Print one prompt's text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := infographic.DefaultCatalog().Lookup(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p.Text)
		return nil
	},
}

// ─── infographic ──────────────────────────────────────────────────────────────

var infographicOut string

var infographicCmd = &cobra.Command{
	Use:   "infographic <id>",
	Short: "Generate an infographic and write it as PNG",
	Long: `Generates the image for a catalog prompt and writes the decoded PNG to
--out (default <id>.png). Use "-" to write to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, provider, err := loadProvider(cmd.Context(), logger)
		if err != nil {
			return err
		}

		svc := infographic.NewService(
			infographic.DefaultCatalog(),
			provider,
			credential.StaticGate{Configured: cfg.HasGeminiKey()},
			nil,
			logger,
		)
		st := session.NewStore(cfg.SessionTTL).Create()

		uri, err := svc.Generate(cmd.Context(), st, args[0])
		if err != nil {
			if ai.IsInvalidCredential(err) {
				return fmt.Errorf("%s: %w", infographic.FailureMessage, err)
			}
			return err
		}

		png, err := decodeDataURI(uri)
		if err != nil {
			return err
		}

		out := infographicOut
		if out == "" {
			out = args[0] + ".png"
		}
		if out == "-" {
			_, err = cmd.OutOrStdout().Write(png)
			return err
		}
		if err := os.WriteFile(out, png, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(png))
		return nil
	},
}

func init() {
	infographicCmd.Flags().StringVarP(&infographicOut, "out", "o", "", "output file")
}

var errNotDataURI = errors.New("image is not a base64 PNG data URI")

// decodeDataURI returns the bytes behind a "data:image/png;base64," URI.
func decodeDataURI(uri string) ([]byte, error) {
	payload, ok := strings.CutPrefix(uri, ai.DataURIPrefix)
	if !ok {
		return nil, errNotDataURI
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNotDataURI, err)
	}
	return b, nil
}
