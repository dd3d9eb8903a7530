package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/sitecrawl/mock"
	sitecrawlslog "github.com/fwojciec/sitecrawl/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingNotifier_Notify(t *testing.T) {
	t.Parallel()

	t.Run("logs seed and link count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		var called bool
		inner := &mock.Notifier{
			NotifyFn: func(_ context.Context, _ string, _ []string) error {
				called = true
				return nil
			},
		}

		n := sitecrawlslog.NewLoggingNotifier(inner, slog.New(slog.NewTextHandler(&buf, nil)))
		err := n.Notify(context.Background(), "https://example.com/", []string{"https://example.com/a/", "https://example.com/b/"})

		require.NoError(t, err)
		assert.True(t, called)
		output := buf.String()
		assert.Contains(t, output, `msg="webhook notify"`)
		assert.Contains(t, output, "seed=https://example.com/")
		assert.Contains(t, output, "links=2")
	})

	t.Run("logs and returns errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Notifier{
			NotifyFn: func(_ context.Context, _ string, _ []string) error {
				return errors.New("HTTP 502")
			},
		}

		n := sitecrawlslog.NewLoggingNotifier(inner, slog.New(slog.NewTextHandler(&buf, nil)))
		err := n.Notify(context.Background(), "https://example.com/", []string{"https://example.com/a/"})

		require.EqualError(t, err, "HTTP 502")
		assert.Contains(t, buf.String(), `err="HTTP 502"`)
	})
}
