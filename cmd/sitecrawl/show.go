package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/sitecrawl/markdown"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	cr, err := deps.Crawls.FindCrawlByID(deps.Ctx, c.ID)
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}

	switch c.Format {
	case "json":
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cr)
	case "markdown":
		return markdown.NewReportWriter(deps.Stdout).Write(cr)
	}

	fmt.Fprintf(deps.Stdout, "ID:       %s\n", cr.ID)
	fmt.Fprintf(deps.Stdout, "Seed:     %s\n", cr.SeedURL)
	fmt.Fprintf(deps.Stdout, "Created:  %s\n", cr.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(deps.Stdout, "Duration: %s\n", cr.Duration.Round(time.Millisecond))
	fmt.Fprintf(deps.Stdout, "Fetched:  %d\n", cr.Fetched)
	fmt.Fprintf(deps.Stdout, "Failed:   %d\n", cr.Failed)
	fmt.Fprintf(deps.Stdout, "Links:    %d\n", len(cr.Links))
	for _, link := range cr.Links {
		fmt.Fprintf(deps.Stdout, "  %s\n", link)
	}
	return nil
}
