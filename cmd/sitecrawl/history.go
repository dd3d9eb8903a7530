package main

import (
	"fmt"

	"github.com/fwojciec/sitecrawl"
	"github.com/rodaine/table"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	filter := sitecrawl.CrawlFilter{Limit: c.Limit}
	if c.Seed != "" {
		filter.SeedURL = &c.Seed
	}

	crawls, err := deps.Crawls.FindCrawls(deps.Ctx, filter)
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}

	if len(crawls) == 0 {
		fmt.Fprintln(deps.Stdout, "No crawls found. Use 'sitecrawl crawl --save' to record one.")
		return nil
	}

	tbl := table.New("ID", "Created", "Seed", "Links", "Failed").WithWriter(deps.Stdout)
	for _, cr := range crawls {
		tbl.AddRow(cr.ID, cr.CreatedAt.Local().Format("2006-01-02 15:04"), cr.SeedURL, len(cr.Links), cr.Failed)
	}
	tbl.Print()

	return nil
}
