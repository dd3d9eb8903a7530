package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Ensure LoggingCrawler implements sitecrawl.Crawler.
var _ sitecrawl.Crawler = (*LoggingCrawler)(nil)

// LoggingCrawler wraps a Crawler and logs one line per crawl.
type LoggingCrawler struct {
	next   sitecrawl.Crawler
	logger *slog.Logger
}

// NewLoggingCrawler creates a new LoggingCrawler.
func NewLoggingCrawler(next sitecrawl.Crawler, logger *slog.Logger) *LoggingCrawler {
	return &LoggingCrawler{next: next, logger: logger}
}

// Crawl delegates to the wrapped crawler and logs the totals.
func (c *LoggingCrawler) Crawl(ctx context.Context, seedURL string, opts sitecrawl.CrawlOptions) (result *sitecrawl.CrawlResult, err error) {
	defer func(begin time.Time) {
		var links, fetched, failed int
		if result != nil {
			links, fetched, failed = len(result.Links), result.Fetched, len(result.Failed)
		}
		c.logger.Info("crawl",
			"seed", seedURL,
			"links", links,
			"fetched", fetched,
			"failed", failed,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Crawl(ctx, seedURL, opts)
}

// Ensure LoggingCrawlService implements sitecrawl.CrawlService.
var _ sitecrawl.CrawlService = (*LoggingCrawlService)(nil)

// LoggingCrawlService wraps a CrawlService with logging. Writes are
// logged at info level, reads at debug level.
type LoggingCrawlService struct {
	next   sitecrawl.CrawlService
	logger *slog.Logger
}

// NewLoggingCrawlService creates a new LoggingCrawlService.
func NewLoggingCrawlService(next sitecrawl.CrawlService, logger *slog.Logger) *LoggingCrawlService {
	return &LoggingCrawlService{next: next, logger: logger}
}

// CreateCrawl delegates to the wrapped service and logs the new record.
func (s *LoggingCrawlService) CreateCrawl(ctx context.Context, crawl *sitecrawl.Crawl) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("create crawl",
			"id", crawl.ID,
			"seed", crawl.SeedURL,
			"links", len(crawl.Links),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.CreateCrawl(ctx, crawl)
}

// FindCrawlByID delegates to the wrapped service.
func (s *LoggingCrawlService) FindCrawlByID(ctx context.Context, id string) (crawl *sitecrawl.Crawl, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find crawl",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindCrawlByID(ctx, id)
}

// FindCrawls delegates to the wrapped service.
func (s *LoggingCrawlService) FindCrawls(ctx context.Context, filter sitecrawl.CrawlFilter) (crawls []*sitecrawl.Crawl, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find crawls",
			"count", len(crawls),
			"limit", filter.Limit,
			"offset", filter.Offset,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindCrawls(ctx, filter)
}
