package sitecrawl

import (
	"context"
	"time"
)

// DefaultMaxConcurrency is the number of fetches a crawl runs at once when
// the caller does not choose a limit.
const DefaultMaxConcurrency = 5

// CrawlOptions configures a single crawl.
type CrawlOptions struct {
	// MaxConcurrency caps the number of simultaneous fetches.
	// Values <= 0 select DefaultMaxConcurrency.
	MaxConcurrency int

	// Progress, if set, receives events as the crawl proceeds.
	// Events are delivered sequentially.
	Progress ProgressFunc
}

// CrawlResult is the outcome of a finished crawl.
type CrawlResult struct {
	// Links holds every canonical same-domain URL discovered during the
	// crawl, in the order it was accepted. The seed itself is not included.
	Links []string `json:"links"`

	// Fetched is the number of pages fetched successfully.
	Fetched int `json:"fetched"`

	// Failed lists pages that could not be fetched or parsed. Such pages
	// contribute no links but never fail the crawl.
	Failed []PageFailure `json:"failed,omitempty"`
}

// PageFailure records a soft failure isolated to one page.
type PageFailure struct {
	URL string `json:"url"`
	Err error  `json:"-"`
}

// Crawler discovers links reachable from a seed URL.
type Crawler interface {
	// Crawl visits every reachable same-domain page starting at seedURL.
	// Returns EINVALID if seedURL is not an absolute http(s) URL.
	// Per-page failures are reported in the result, not as errors.
	Crawl(ctx context.Context, seedURL string, opts CrawlOptions) (*CrawlResult, error)
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressDiscovered ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// String returns a short name for the event type.
func (t ProgressType) String() string {
	switch t {
	case ProgressDiscovered:
		return "discovered"
	case ProgressCompleted:
		return "completed"
	case ProgressFailed:
		return "failed"
	case ProgressFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type    ProgressType
	URL     string
	Error   error
	Fetched int // pages fetched so far, successful or not
	Queued  int // URLs waiting in the frontier
	Active  int // fetches in flight
}

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// Crawl is a stored record of a finished crawl.
type Crawl struct {
	ID        string        `json:"id"`
	SeedURL   string        `json:"seedUrl"`
	Links     []string      `json:"links"`
	LinksHash string        `json:"linksHash"`
	Fetched   int           `json:"fetched"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Validate returns an error if the crawl contains invalid fields.
func (c *Crawl) Validate() error {
	if c.SeedURL == "" {
		return Errorf(EINVALID, "crawl seed URL required")
	}
	return nil
}

// CrawlService represents a service for recording finished crawls.
// Records are history only; they are never used to resume a crawl.
type CrawlService interface {
	// CreateCrawl stores a finished crawl and assigns its ID.
	CreateCrawl(ctx context.Context, crawl *Crawl) error

	// FindCrawlByID retrieves a crawl by ID.
	// Returns ENOTFOUND if the crawl does not exist.
	FindCrawlByID(ctx context.Context, id string) (*Crawl, error)

	// FindCrawls retrieves crawls matching the filter, newest first.
	FindCrawls(ctx context.Context, filter CrawlFilter) ([]*Crawl, error)
}

// CrawlFilter represents a filter for FindCrawls.
type CrawlFilter struct {
	SeedURL *string `json:"seedUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
