package mock

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.Notifier = (*Notifier)(nil)

// Notifier is a mock implementation of sitecrawl.Notifier.
type Notifier struct {
	NotifyFn func(ctx context.Context, seedURL string, links []string) error
}

func (n *Notifier) Notify(ctx context.Context, seedURL string, links []string) error {
	return n.NotifyFn(ctx, seedURL, links)
}

var _ sitecrawl.ScreenshotStore = (*ScreenshotStore)(nil)

// ScreenshotStore is a mock implementation of sitecrawl.ScreenshotStore.
type ScreenshotStore struct {
	SaveScreenshotFn func(ctx context.Context, shot *sitecrawl.Screenshot) (string, error)
}

func (s *ScreenshotStore) SaveScreenshot(ctx context.Context, shot *sitecrawl.Screenshot) (string, error) {
	return s.SaveScreenshotFn(ctx, shot)
}
