package capture

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/kbinani/screenshot"
)

// ScreenshotCapturer captures through github.com/kbinani/screenshot.
type ScreenshotCapturer struct {
	locator Locator
}

// NewScreenshotCapturer returns a capturer resolving display ids through
// locator, normally a display.ScreenshotEnumerator.
func NewScreenshotCapturer(locator Locator) *ScreenshotCapturer {
	return &ScreenshotCapturer{locator: locator}
}

// Name returns the capturer name
func (c *ScreenshotCapturer) Name() string {
	return "screenshot"
}

// CaptureRegion implements Capturer.
func (c *ScreenshotCapturer) CaptureRegion(displayID string, r image.Rectangle) (*image.RGBA, error) {
	origin, err := c.locator.Origin(displayID)
	if err != nil {
		return nil, err
	}

	img, err := screenshot.CaptureRect(r.Add(origin))
	if err != nil {
		return nil, fmt.Errorf("failed to capture rect: %w", err)
	}
	return normalize(img), nil
}

// normalize moves the image bounds to start at (0, 0).
func normalize(img *image.RGBA) *image.RGBA {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
