// Package goquery implements sitecrawl.LinkExtractor using CSS selectors
// over a parsed HTML document.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitecrawl"
)

// anchorSelector matches every anchor that carries an href attribute.
const anchorSelector = "a[href]"

// Ensure LinkExtractor implements sitecrawl.LinkExtractor at compile time.
var _ sitecrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor returns the href of every anchor in a page, resolved
// against the page URL. It does no filtering beyond dropping empty and
// unparsable values; scope decisions belong to the crawler.
type LinkExtractor struct{}

// NewLinkExtractor creates a new LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks parses html and returns absolute link targets in document
// order. Duplicates are kept.
func (e *LinkExtractor) ExtractLinks(html string, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid page URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	// A <base href> changes how relative references resolve.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if resolved := resolveURL(base, href); resolved != nil {
			base = resolved
		}
	}

	var links []string
	doc.Find(anchorSelector).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if resolved := resolveURL(base, href); resolved != nil {
			links = append(links, resolved.String())
		}
	})
	return links, nil
}

// resolveURL resolves href against base. It returns nil for empty or
// unparsable values.
func resolveURL(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	return base.ResolveReference(ref)
}
