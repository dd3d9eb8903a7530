package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/gocarina/gocsv"
)

// progressURLWidth is the display width of URLs in progress lines.
const progressURLWidth = 60

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	opts := sitecrawl.CrawlOptions{MaxConcurrency: c.Concurrency}
	if c.Progress {
		opts.Progress = func(event sitecrawl.ProgressEvent) {
			switch event.Type {
			case sitecrawl.ProgressCompleted, sitecrawl.ProgressFailed:
				fmt.Fprintf(deps.Stderr, "  [%d fetched, %d queued] %s\n",
					event.Fetched, event.Queued, crawl.TruncateURL(event.URL, progressURLWidth))
			}
		}
	}

	start := time.Now()
	result, err := deps.Crawler.Crawl(deps.Ctx, c.URL, opts)
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}
	elapsed := time.Since(start)

	for _, f := range result.Failed {
		fmt.Fprintln(deps.Stderr, crawl.FormatFailure(f.URL, f.Err))
	}

	if err := writeLinks(deps.Stdout, c.Format, result.Links); err != nil {
		return err
	}

	if c.Save && deps.Crawls != nil {
		record := &sitecrawl.Crawl{
			SeedURL:  c.URL,
			Links:    result.Links,
			Fetched:  result.Fetched,
			Failed:   len(result.Failed),
			Duration: elapsed,
		}
		if err := deps.Crawls.CreateCrawl(deps.Ctx, record); err != nil {
			printError(deps.Stderr, err)
			return err
		}
		fmt.Fprintf(deps.Stderr, "Saved crawl %s\n", record.ID)
	}

	return nil
}

// linkRow is one CSV output row.
type linkRow struct {
	URL string `csv:"url"`
}

// writeLinks prints links in the requested format.
func writeLinks(w io.Writer, format string, links []string) error {
	if links == nil {
		links = []string{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Links []string `json:"links"`
		}{links})
	case "csv":
		rows := make([]*linkRow, 0, len(links))
		for _, link := range links {
			rows = append(rows, &linkRow{URL: link})
		}
		return gocsv.Marshal(rows, w)
	default:
		for _, link := range links {
			fmt.Fprintln(w, link)
		}
		return nil
	}
}

// printError writes a user-facing error line. Internal errors carry no
// message of their own, so the full error text is shown instead.
func printError(w io.Writer, err error) {
	if sitecrawl.ErrorCode(err) == sitecrawl.EINTERNAL {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "error: %s\n", sitecrawl.ErrorMessage(err))
}
