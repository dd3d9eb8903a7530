package mock

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.Crawler = (*Crawler)(nil)

// Crawler is a mock implementation of sitecrawl.Crawler.
type Crawler struct {
	CrawlFn func(ctx context.Context, seedURL string, opts sitecrawl.CrawlOptions) (*sitecrawl.CrawlResult, error)
}

func (c *Crawler) Crawl(ctx context.Context, seedURL string, opts sitecrawl.CrawlOptions) (*sitecrawl.CrawlResult, error) {
	return c.CrawlFn(ctx, seedURL, opts)
}

var _ sitecrawl.CrawlService = (*CrawlService)(nil)

// CrawlService is a mock implementation of sitecrawl.CrawlService.
type CrawlService struct {
	CreateCrawlFn   func(ctx context.Context, crawl *sitecrawl.Crawl) error
	FindCrawlByIDFn func(ctx context.Context, id string) (*sitecrawl.Crawl, error)
	FindCrawlsFn    func(ctx context.Context, filter sitecrawl.CrawlFilter) ([]*sitecrawl.Crawl, error)
}

func (s *CrawlService) CreateCrawl(ctx context.Context, crawl *sitecrawl.Crawl) error {
	return s.CreateCrawlFn(ctx, crawl)
}

func (s *CrawlService) FindCrawlByID(ctx context.Context, id string) (*sitecrawl.Crawl, error) {
	return s.FindCrawlByIDFn(ctx, id)
}

func (s *CrawlService) FindCrawls(ctx context.Context, filter sitecrawl.CrawlFilter) ([]*sitecrawl.Crawl, error) {
	return s.FindCrawlsFn(ctx, filter)
}
