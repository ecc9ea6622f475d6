// Package cmd defines and implements the CLI commands for the bookcrawler
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookcrawler",
		Short: "Catalog ingestion crawler for the book catalog service.",
		Long: `bookcrawler walks a paginated book catalog site, extracts structured
fields from every item detail page, normalizes them, and persists them
idempotently into Postgres. The read-only query API consumes the same
tables from a separate service.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (defaults plus BOOKS_* environment variables are used when unset)")

	cmd.AddCommand(newCrawlCmd())
	return cmd
}

// Execute runs the root command with a signal-aware context so a crawl can
// be stopped cleanly with SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
