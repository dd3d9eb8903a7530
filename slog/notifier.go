package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Ensure LoggingNotifier implements sitecrawl.Notifier.
var _ sitecrawl.Notifier = (*LoggingNotifier)(nil)

// LoggingNotifier wraps a Notifier with logging.
type LoggingNotifier struct {
	next   sitecrawl.Notifier
	logger *slog.Logger
}

// NewLoggingNotifier creates a new LoggingNotifier.
func NewLoggingNotifier(next sitecrawl.Notifier, logger *slog.Logger) *LoggingNotifier {
	return &LoggingNotifier{next: next, logger: logger}
}

// Notify delegates to the wrapped notifier and logs the outcome.
func (n *LoggingNotifier) Notify(ctx context.Context, seedURL string, links []string) (err error) {
	defer func(begin time.Time) {
		n.logger.Info("webhook notify",
			"seed", seedURL,
			"links", len(links),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return n.next.Notify(ctx, seedURL, links)
}
