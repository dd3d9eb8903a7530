// Package markdown renders stored crawls as Markdown reports.
package markdown

import (
	"io"
	"strconv"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/nao1215/markdown"
)

// ReportWriter writes crawl reports in Markdown format.
type ReportWriter struct {
	output io.Writer
}

// NewReportWriter creates a ReportWriter that writes to output.
func NewReportWriter(output io.Writer) *ReportWriter {
	return &ReportWriter{output: output}
}

// Write renders the crawl as a header, a property table and a link list.
func (w *ReportWriter) Write(crawl *sitecrawl.Crawl) error {
	if crawl == nil {
		return sitecrawl.Errorf(sitecrawl.EINVALID, "crawl required")
	}

	md := markdown.NewMarkdown(w.output)

	md.H1(crawl.SeedURL)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"ID", "`" + crawl.ID + "`"},
			{"Seed", crawl.SeedURL},
			{"Created", crawl.CreatedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", crawl.Duration.Round(time.Millisecond).String()},
			{"Pages Fetched", strconv.Itoa(crawl.Fetched)},
			{"Failed Pages", strconv.Itoa(crawl.Failed)},
			{"Link Digest", "`" + crawl.LinksHash + "`"},
		},
	})
	md.PlainText("")

	md.H2("Links")
	md.PlainText("")
	if len(crawl.Links) == 0 {
		md.PlainText("No links discovered.")
	} else {
		md.BulletList(crawl.Links...)
	}

	return md.Build()
}
