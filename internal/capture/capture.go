package capture

import (
	"image"
)

// Capturer grabs raw pixels from a display.
type Capturer interface {
	// CaptureRegion captures r, given in physical pixels relative to the
	// top-left corner of the display. The returned image is exactly
	// r.Dx() x r.Dy() with bounds starting at (0, 0).
	CaptureRegion(displayID string, r image.Rectangle) (*image.RGBA, error)

	// Name returns a human-readable name for this capturer
	Name() string
}

// Locator resolves a display id to the origin of that display in the
// capturer's own coordinate space.
type Locator interface {
	Origin(displayID string) (image.Point, error)
}
