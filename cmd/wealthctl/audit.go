package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/spf13/cobra"

	"github.com/Ronnie04NYC/wealth-transfer/internal/config"
	"github.com/Ronnie04NYC/wealth-transfer/internal/db"
	"github.com/Ronnie04NYC/wealth-transfer/internal/store"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recent report fetches from the audit log",
	Long: `Reads the fetch audit log written by the server. Needs DATABASE_URL.
Each line shows when the fetch ran, where the data came from and, for
fallbacks, why.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}

		pool, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer pool.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		entries, err := store.New(pool, db.New(pool)).RecentFetches(ctx, auditLimit)
		if err != nil {
			return err
		}
		return writeFetches(cmd.OutOrStdout(), entries)
	},
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "number of fetches to show")
	rootCmd.AddCommand(auditCmd)
}

// writeFetches prints one row per fetch.
func writeFetches(w io.Writer, entries []store.FetchEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSOURCE\tDURATION\tDETAIL\tCITATIONS")
	for _, e := range entries {
		detail := "-"
		switch {
		case e.ErrorKind != "":
			detail = e.ErrorKind
		case len(e.FallbackFields) > 0:
			detail = "fallback: " + strings.Join(e.FallbackFields, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.Source,
			e.Duration,
			detail,
			len(e.Citations),
		)
	}
	return tw.Flush()
}
