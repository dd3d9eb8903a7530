package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// DefaultWebhookLinks is the number of links forwarded per crawl.
const DefaultWebhookLinks = 5

// webhookLabel tags every forwarded URL for the downstream scraper.
const webhookLabel = "DETAIL"

// Ensure Notifier implements sitecrawl.Notifier at compile time.
var _ sitecrawl.Notifier = (*Notifier)(nil)

// Notifier forwards the first links of a crawl to a webhook as scraper
// start URLs.
type Notifier struct {
	client   *http.Client
	url      string
	maxLinks int
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithMaxLinks sets how many links are forwarded per crawl.
func WithMaxLinks(limit int) NotifierOption {
	return func(n *Notifier) {
		n.maxLinks = limit
	}
}

// WithClient sets the HTTP client used to call the webhook.
func WithClient(c *http.Client) NotifierOption {
	return func(n *Notifier) {
		n.client = c
	}
}

// NewNotifier creates a Notifier posting to webhookURL.
func NewNotifier(webhookURL string, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		client:   &http.Client{Timeout: 30 * time.Second},
		url:      webhookURL,
		maxLinks: DefaultWebhookLinks,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type webhookPayload struct {
	StartURLs []startURL `json:"startUrls"`
}

type startURL struct {
	URL      string   `json:"url"`
	UserData userData `json:"userData"`
}

type userData struct {
	Label string `json:"label"`
}

// Notify posts the first links to the webhook. Calling it with no links
// is a no-op. Non-2xx responses are returned as errors.
func (n *Notifier) Notify(ctx context.Context, seedURL string, links []string) error {
	if len(links) == 0 {
		return nil
	}
	if len(links) > n.maxLinks {
		links = links[:n.maxLinks]
	}

	payload := webhookPayload{StartURLs: make([]startURL, 0, len(links))}
	for _, link := range links {
		payload.StartURLs = append(payload.StartURLs, startURL{
			URL:      link,
			UserData: userData{Label: webhookLabel},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request for %s: %w", seedURL, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook for %s: %w", seedURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook for %s: HTTP %d", seedURL, resp.StatusCode)
	}
	return nil
}
