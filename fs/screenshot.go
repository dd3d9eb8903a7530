// Package fs provides file-based storage for uploaded screenshots.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// maxNameAttempts bounds the search for a free file name when several
// uploads land in the same millisecond.
const maxNameAttempts = 100

// Ensure ScreenshotStore implements sitecrawl.ScreenshotStore at compile time.
var _ sitecrawl.ScreenshotStore = (*ScreenshotStore)(nil)

// ScreenshotStore writes screenshots as <unix-millis>.png files into a
// directory. Existing files are never overwritten.
type ScreenshotStore struct {
	dir string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewScreenshotStore creates a ScreenshotStore writing to dir. The
// directory is created on first save.
func NewScreenshotStore(dir string) *ScreenshotStore {
	return &ScreenshotStore{
		dir: dir,
		Now: time.Now,
	}
}

// SaveScreenshot writes the image and returns its path. If the name for the
// current millisecond is taken, the next free millisecond is used.
func (s *ScreenshotStore) SaveScreenshot(ctx context.Context, shot *sitecrawl.Screenshot) (string, error) {
	if err := shot.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	millis := s.Now().UnixMilli()
	for range maxNameAttempts {
		path := filepath.Join(s.dir, strconv.FormatInt(millis, 10)+".png")
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			millis++
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create screenshot: %w", err)
		}

		if _, err := f.Write(shot.Data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("write screenshot: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("write screenshot: %w", err)
		}
		return path, nil
	}
	return "", sitecrawl.Errorf(sitecrawl.EINTERNAL, "no free screenshot name near %d", millis)
}
