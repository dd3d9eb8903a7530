package sitecrawl

import "context"

// Screenshot is a captured image of a page.
type Screenshot struct {
	URL  string
	Data []byte // PNG bytes
}

// Validate returns an error if the screenshot contains invalid fields.
func (s *Screenshot) Validate() error {
	if len(s.Data) == 0 {
		return Errorf(EINVALID, "screenshot data required")
	}
	return nil
}

// ScreenshotStore persists uploaded screenshots.
type ScreenshotStore interface {
	// SaveScreenshot writes the screenshot and returns where it was stored.
	SaveScreenshot(ctx context.Context, shot *Screenshot) (string, error)
}
