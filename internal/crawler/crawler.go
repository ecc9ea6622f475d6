// Package crawler drives the listing/detail traversal of the catalog site
// using the Colly library.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/Aurelien-L/bookcrawler/internal/catalog"
	"github.com/Aurelien-L/bookcrawler/internal/extract"
	"github.com/Aurelien-L/bookcrawler/internal/pipeline"
)

// Page-kind labels used in logs and metrics.
const (
	kindListing = "listing"
	kindDetail  = "detail"
)

// Selectors for the catalog's listing markup.
const (
	detailLinkSelector = "article.product_pod h3 a[href]"
	nextPageSelector   = "li.next a[href]"
)

// Config holds the settings for one crawl session. The struct is decoupled
// from Viper so the crawler is testable on its own.
type Config struct {
	StartURL       string
	AllowedDomains []string
	UserAgent      string
	MaxPages       int
	RequestTimeout time.Duration
	Delay          time.Duration
	RespectRobots  bool
}

// Validate enforces required values.
func (c Config) Validate() error {
	if c.StartURL == "" {
		return fmt.Errorf("start URL is required")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be > 0")
	}
	return nil
}

// Ingestor persists one normalized record. *store.Writer implements it.
type Ingestor interface {
	Save(ctx context.Context, rec catalog.Record) error
}

// Stats summarizes one crawl run.
type Stats struct {
	ListingPages int
	DetailPages  int
	ItemsSaved   int
	ItemsFailed  int
}

// Crawler walks listing pages, follows item detail links, and feeds each
// detail page through extraction, normalization, and persistence. A single
// item's failure never halts the crawl; a listing fetch failure only ends
// that pagination branch.
type Crawler struct {
	cfg       Config
	logger    *zap.Logger
	extractor *extract.Extractor
	pipeline  *pipeline.Pipeline
	ingestor  Ingestor

	// visited counts every request admitted against the defensive page cap.
	visited int
	stats   Stats
}

// New builds a Crawler from its collaborators.
func New(
	cfg Config,
	extractor *extract.Extractor,
	pipe *pipeline.Pipeline,
	ingestor Ingestor,
	logger *zap.Logger,
) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("crawler config: %w", err)
	}
	if extractor == nil || pipe == nil || ingestor == nil {
		return nil, fmt.Errorf("extractor, pipeline, and ingestor are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		cfg:       cfg,
		logger:    logger,
		extractor: extractor,
		pipeline:  pipe,
		ingestor:  ingestor,
	}, nil
}

// Run crawls from the configured start listing page until pagination ends,
// the page cap is reached, or ctx is canceled. Traversal is synchronous:
// each detail page is fully processed before the next request goes out, and
// the next listing page is only visited after every item on the current one.
func (c *Crawler) Run(ctx context.Context) (Stats, error) {
	c.visited = 0
	c.stats = Stats{}

	detail := c.newCollector(ctx)
	detail.OnResponse(c.handleDetail(ctx))
	detail.OnError(c.handleFetchError(kindDetail))

	listing := c.newCollector(ctx)
	listing.OnResponse(func(*colly.Response) {
		c.stats.ListingPages++
		pagesVisited.WithLabelValues(kindListing).Inc()
	})
	listing.OnHTML(detailLinkSelector, func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if err := detail.Visit(link); err != nil && !isAlreadyVisited(err) {
			// Fetch failures are reported by the detail OnError handler.
			c.logger.Debug("detail visit rejected", zap.String("url", link), zap.Error(err))
		}
	})
	listing.OnHTML(nextPageSelector, func(e *colly.HTMLElement) {
		if err := e.Request.Visit(e.Attr("href")); err != nil && !isAlreadyVisited(err) {
			// Fetch failures are reported by the listing OnError handler.
			c.logger.Debug("next listing visit rejected", zap.String("href", e.Attr("href")), zap.Error(err))
		}
	})
	listing.OnError(c.handleFetchError(kindListing))

	c.logger.Info("starting crawl",
		zap.String("start_url", c.cfg.StartURL),
		zap.Int("max_pages", c.cfg.MaxPages),
	)
	if err := listing.Visit(c.cfg.StartURL); err != nil {
		return c.stats, fmt.Errorf("visit start url %s: %w", c.cfg.StartURL, err)
	}
	return c.stats, ctx.Err()
}

// isAlreadyVisited reports whether a Visit was rejected only because the
// URL was seen before in this run.
func isAlreadyVisited(err error) bool {
	return errors.Is(err, colly.ErrAlreadyVisited)
}

func (c *Crawler) newCollector(ctx context.Context) *colly.Collector {
	opts := []colly.CollectorOption{}
	if c.cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(c.cfg.UserAgent))
	}
	if len(c.cfg.AllowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(c.cfg.AllowedDomains...))
	}
	col := colly.NewCollector(opts...)
	col.AllowURLRevisit = false
	col.IgnoreRobotsTxt = !c.cfg.RespectRobots
	if c.cfg.RequestTimeout > 0 {
		col.SetRequestTimeout(c.cfg.RequestTimeout)
	}
	if c.cfg.Delay > 0 {
		if err := col.Limit(&colly.LimitRule{DomainGlob: "*", Delay: c.cfg.Delay}); err != nil {
			c.logger.Warn("failed to set collector delay", zap.Error(err))
		}
	}

	col.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			c.logger.Info("crawl canceled, aborting request", zap.String("url", r.URL.String()))
			r.Abort()
			return
		}
		// Defensive cap against runaway pagination.
		if c.visited >= c.cfg.MaxPages {
			c.logger.Warn("page cap reached, aborting request",
				zap.Int("max_pages", c.cfg.MaxPages),
				zap.String("url", r.URL.String()),
			)
			r.Abort()
			return
		}
		c.visited++
	})
	return col
}

// handleDetail runs one fetched detail page through the
// extract -> normalize -> persist chain.
func (c *Crawler) handleDetail(ctx context.Context) colly.ResponseCallback {
	return func(r *colly.Response) {
		c.stats.DetailPages++
		pagesVisited.WithLabelValues(kindDetail).Inc()
		url := r.Request.URL.String()

		fields, err := c.extractor.Extract(bytes.NewReader(r.Body))
		if err != nil {
			c.stats.ItemsFailed++
			itemsFailed.Inc()
			c.logger.Warn("skipping unparseable detail page", zap.String("url", url), zap.Error(err))
			return
		}

		rec := c.pipeline.Run(extract.RecordFromFields(fields))

		// An in-flight transaction must reach commit or rollback even when
		// the crawl is being stopped; cancellation is honored between fetches.
		if err := c.ingestor.Save(context.WithoutCancel(ctx), rec); err != nil {
			c.stats.ItemsFailed++
			itemsFailed.Inc()
			c.logger.Error("persist item failed",
				zap.String("url", url),
				zap.String("external_id", rec.ExternalID),
				zap.Error(err),
			)
			return
		}

		c.stats.ItemsSaved++
		itemsIngested.Inc()
		c.logger.Info("item ingested",
			zap.String("external_id", rec.ExternalID),
			zap.String("title", rec.Title),
			zap.Float64("price", rec.Price),
			zap.Int("stock_count", rec.StockCount),
		)
	}
}

func (c *Crawler) handleFetchError(kind string) colly.ErrorCallback {
	return func(r *colly.Response, err error) {
		fetchErrors.WithLabelValues(kind).Inc()
		if kind == kindDetail {
			c.stats.ItemsFailed++
			itemsFailed.Inc()
		}
		msg := "fetch failed"
		switch r.StatusCode {
		case http.StatusTooManyRequests:
			msg = "rate limited"
		case http.StatusForbidden:
			msg = "forbidden"
		}
		c.logger.Error(msg,
			zap.String("kind", kind),
			zap.String("url", r.Request.URL.String()),
			zap.Int("status_code", r.StatusCode),
			zap.Error(err),
		)
	}
}
