package crawl

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// LinksHash computes a digest of an ordered link list using xxhash.
// Two crawls that discovered the same links in the same order share a hash.
func LinksHash(links []string) string {
	h := xxhash.New()
	for i, link := range links {
		if i > 0 {
			_, _ = h.WriteString("\n")
		}
		_, _ = h.WriteString(link)
	}
	return fmt.Sprintf("%x", h.Sum64())
}

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatFailure renders a page failure as a single line for terminal output.
func FormatFailure(url string, err error) string {
	msg := "unknown error"
	if err != nil {
		msg = strings.ReplaceAll(err.Error(), "\n", " ")
	}
	return fmt.Sprintf("skip %s: %s", url, msg)
}
