// Package rod implements sitecrawl.Fetcher with a headless Chrome browser,
// for sites whose links only exist after JavaScript runs.
package rod

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds navigation, load and serialization of a page.
const DefaultFetchTimeout = 10 * time.Second

var errClosed = sitecrawl.Errorf(sitecrawl.EINVALID, "fetcher is closed")

// Ensure Fetcher implements sitecrawl.Fetcher at compile time.
var _ sitecrawl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager *BrowserManager
	timeout time.Duration
}

type fetcherConfig struct {
	timeout  time.Duration
	maxPages int
}

// Option configures a Fetcher.
type Option func(*fetcherConfig)

// WithFetchTimeout sets the per-page timeout.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *fetcherConfig) {
		c.timeout = d
	}
}

// WithMaxPages sets the number of pages before the browser is recycled.
// Defaults to DefaultMaxPages if not specified.
func WithMaxPages(n int) Option {
	return func(c *fetcherConfig) {
		c.maxPages = n
	}
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{
		timeout:  DefaultFetchTimeout,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(cfg.maxPages)
	if err != nil {
		return nil, err
	}
	return &Fetcher{manager: manager, timeout: cfg.timeout}, nil
}

// Fetch navigates to the URL and returns the rendered HTML. A document
// response outside 2xx is an error, as with the plain HTTP fetcher.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	browser, release, err := f.manager.Acquire()
	if err != nil {
		return "", err
	}
	defer release()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return "", wrapContextErr(ctx, err)
	}
	var resp proto.NetworkResponseReceived
	waitResponse := page.WaitEvent(&resp)

	if err := page.Navigate(url); err != nil {
		return "", wrapContextErr(ctx, err)
	}
	waitResponse()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if resp.Response != nil && resp.Type == proto.NetworkResourceTypeDocument {
		if status := resp.Response.Status; status < 200 || status > 299 {
			return "", fmt.Errorf("HTTP %d for %s", status, url)
		}
	}

	if err := page.WaitLoad(); err != nil {
		return "", wrapContextErr(ctx, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", wrapContextErr(ctx, err)
	}
	return html, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

// wrapContextErr prefers the context error so timeouts surface as
// context.DeadlineExceeded whatever rod reports.
func wrapContextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}
