package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Aurelien-L/bookcrawler/internal/api"
	"github.com/Aurelien-L/bookcrawler/internal/app"
	"github.com/Aurelien-L/bookcrawler/internal/crawler"
	"github.com/Aurelien-L/bookcrawler/internal/extract"
	"github.com/Aurelien-L/bookcrawler/internal/pipeline"
)

// newCrawlCmd creates and configures the 'crawl' subcommand, which runs one
// full catalog ingestion pass.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs one catalog ingestion pass",
		Long: `Walks the configured catalog from its start listing page, following
item detail links and pagination, and persists every extracted item.
Re-running the command is idempotent for categories and items; stock
records accumulate as history.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	application, err := app.New(ctx, cfgFile)
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}
	defer application.Close()

	cfg := application.Config()
	logger := application.Logger().With(zap.String("run_id", uuid.NewString()))

	if cfg.Ops.Listen != "" {
		stopOps := startOpsServer(cfg.Ops.Listen, application, logger)
		defer stopOps()
	}

	extractor, err := extract.New(extract.DetailFields())
	if err != nil {
		return fmt.Errorf("build extractor: %w", err)
	}

	engine, err := crawler.New(crawler.Config{
		StartURL:       cfg.Crawler.StartURL,
		AllowedDomains: cfg.Crawler.AllowedDomains,
		UserAgent:      cfg.Crawler.UserAgent,
		MaxPages:       cfg.Crawler.MaxPages,
		RequestTimeout: cfg.Crawler.Timeout(),
		Delay:          cfg.Crawler.Delay(),
		RespectRobots:  cfg.Crawler.RespectRobots,
	}, extractor, pipeline.New(), application.Writer(), logger)
	if err != nil {
		return fmt.Errorf("build crawler: %w", err)
	}

	stats, runErr := engine.Run(ctx)
	logger.Info("crawl finished",
		zap.Int("listing_pages", stats.ListingPages),
		zap.Int("detail_pages", stats.DetailPages),
		zap.Int("items_saved", stats.ItemsSaved),
		zap.Int("items_failed", stats.ItemsFailed),
	)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run crawl: %w", runErr)
	}
	return nil
}

// startOpsServer serves health probes and Prometheus metrics for the
// duration of the crawl. The returned func shuts the server down.
func startOpsServer(addr string, application *app.App, logger *zap.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(application.Writer(), logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("ops server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server failed", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("ops server shutdown failed", zap.Error(err))
		}
	}
}
