// Package crawl provides the link discovery engine: URL canonicalization,
// a deduplicating frontier, and a bounded-concurrency fetch loop that runs
// until no work remains.
package crawl

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/sitecrawl"
	"golang.org/x/sync/errgroup"
)

// DefaultFetchTimeout bounds a single page fetch when the Crawler does not
// set one.
const DefaultFetchTimeout = 10 * time.Second

// Frontier configuration for a crawl session.
const (
	// frontierExpectedURLs is the expected number of URLs for Bloom filter sizing.
	frontierExpectedURLs = 10000
	// frontierFalsePositiveRate is the Bloom filter's target false positive rate.
	frontierFalsePositiveRate = 0.01
)

// Compile-time interface verification.
var _ sitecrawl.Crawler = (*Crawler)(nil)

// Crawler discovers same-domain links by fetching pages and following
// their anchors. A Crawler holds no per-crawl state and may run several
// crawls concurrently; each Crawl call owns its own session.
type Crawler struct {
	Fetcher   sitecrawl.Fetcher
	Extractor sitecrawl.LinkExtractor

	// Concurrency is the default fetch limit for crawls that do not set
	// CrawlOptions.MaxConcurrency. Values <= 0 select
	// sitecrawl.DefaultMaxConcurrency.
	Concurrency int

	// FetchTimeout bounds each fetch. Values <= 0 select DefaultFetchTimeout.
	FetchTimeout time.Duration

	// NewFrontier creates the frontier for each crawl. Defaults to an
	// in-memory Frontier.
	NewFrontier func() sitecrawl.URLFrontier
}

// pageResult holds the outcome of fetching a single URL.
type pageResult struct {
	url   string
	links []string
	err   error
}

// Crawl visits every reachable same-domain page starting at seedURL and
// returns the canonical URLs it discovered, in the order they were accepted.
//
// The seed is marked visited up front and is never part of the result.
// Pages that fail to fetch or parse are recorded in the result and
// contribute no links; only an invalid seed fails the call. If ctx is
// canceled the crawl stops dispatching, waits for in-flight fetches and
// returns the context error.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, opts sitecrawl.CrawlOptions) (*sitecrawl.CrawlResult, error) {
	origin, err := NewOrigin(seedURL)
	if err != nil {
		return nil, err
	}
	seed, err := Normalize(seedURL, origin)
	if err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid seed URL %q: %v", seedURL, err)
	}

	s := newSession(origin, c.newFrontier(), c.maxConcurrency(opts), opts.Progress)
	s.frontier.TryEnqueue(seed)

	results := make(chan pageResult)
	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)

	start := func(url string) {
		g.Go(func() error {
			results <- c.visit(ctx, url)
			return nil
		})
	}

	for {
		if ctx.Err() == nil {
			s.dispatch(start)
		}
		// Nothing in flight after a dispatch pass means the frontier is
		// drained, or the crawl was canceled and no more work is started.
		if s.idle() {
			break
		}
		s.complete(<-results)
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.emit(sitecrawl.ProgressFinished, "", nil)
	return s.result(), nil
}

// visit fetches one page and extracts its anchors. It runs on a worker
// goroutine and must not touch session state.
func (c *Crawler) visit(ctx context.Context, url string) pageResult {
	result := pageResult{url: url}

	timeout := c.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	html, err := c.Fetcher.Fetch(fetchCtx, url)
	if err != nil {
		result.err = err
		return result
	}

	links, err := c.Extractor.ExtractLinks(html, url)
	if err != nil {
		result.err = fmt.Errorf("parse %s: %w", url, err)
		return result
	}
	result.links = links
	return result
}

func (c *Crawler) newFrontier() sitecrawl.URLFrontier {
	if c.NewFrontier != nil {
		return c.NewFrontier()
	}
	return NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
}

func (c *Crawler) maxConcurrency(opts sitecrawl.CrawlOptions) int {
	switch {
	case opts.MaxConcurrency > 0:
		return opts.MaxConcurrency
	case c.Concurrency > 0:
		return c.Concurrency
	default:
		return sitecrawl.DefaultMaxConcurrency
	}
}
