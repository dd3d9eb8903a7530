package sitecrawl

import "context"

// Notifier forwards the links of a finished crawl to an external service.
type Notifier interface {
	// Notify sends links discovered from seedURL.
	// Implementations decide how many links are forwarded.
	Notify(ctx context.Context, seedURL string, links []string) error
}
