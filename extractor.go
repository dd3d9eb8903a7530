package sitecrawl

// LinkExtractor extracts anchor targets from HTML.
type LinkExtractor interface {
	// ExtractLinks parses html and returns the href of every anchor with a
	// non-empty value, resolved against pageURL, in document order.
	// Malformed markup is recovered from; hrefs that cannot be parsed are
	// skipped. The returned URLs are absolute but not normalized.
	ExtractLinks(html string, pageURL string) ([]string, error)
}
