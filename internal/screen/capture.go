// Package screen binds enumerated displays to their scaling configuration
// and captures logical regions as physical pixels.
//
// A DisplayCapture is immutable once built. It does not notice display
// configuration changes; call AllDisplays again to pick them up.
package screen

import (
	"fmt"
	"image"

	"github.com/bryanchriswhite/ScaleShot/internal/capture"
	"github.com/bryanchriswhite/ScaleShot/internal/display"
	"github.com/bryanchriswhite/ScaleShot/internal/logger"
	"github.com/bryanchriswhite/ScaleShot/internal/output"
	"github.com/bryanchriswhite/ScaleShot/internal/scaling"
)

// Options configures how captures are persisted.
type Options struct {
	Writer output.Writer

	// Format is png, jpeg or bmp. Empty means png.
	Format string

	// ResampleToLogical scales saved images down to the logical size.
	ResampleToLogical bool
}

// DisplayCapture captures regions of one display.
type DisplayCapture struct {
	info     display.Info
	scaling  scaling.Config
	capturer capture.Capturer
	writer   output.Writer
	format   string
	resample bool
}

// Request is a capture rectangle in display-local logical pixels.
type Request struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result is a captured image. Image holds physical pixels; Logical is the
// size the caller asked for.
type Result struct {
	Image    *image.RGBA
	Logical  display.Size
	Physical image.Rectangle
}

// AllDisplays enumerates displays and resolves the scale of each. It fails
// as a whole: either every display is returned or none.
func AllDisplays(enum display.Enumerator, probe display.DPIProbe, capturer capture.Capturer, opts Options) ([]*DisplayCapture, error) {
	log := logger.WithComponent("screen")

	infos, err := enum.Displays()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDisplayEnumerationFailed, err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrDisplayEnumerationFailed, display.ErrNoDisplays)
	}

	format, err := output.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	writer := opts.Writer
	if writer == nil {
		writer = output.FileWriter{}
	}

	displays := make([]*DisplayCapture, 0, len(infos))
	for _, info := range infos {
		cfg, err := scaling.Determine(info, probe)
		if err != nil {
			return nil, err
		}

		if cfg.UsedFallback() {
			logger.WithDisplay("screen", info.ID).Warn().
				Str("reason", cfg.FallbackReason()).
				Float64("dpi_scale", cfg.DPIScale()).
				Msg("DPI scale unavailable, using fallback")
		}

		log.Debug().
			Str("display", info.ID).
			Float64("dpi_scale", cfg.DPIScale()).
			Float64("total_x", cfg.X().Total).
			Float64("total_y", cfg.Y().Total).
			Msg("Resolved display scale")

		displays = append(displays, &DisplayCapture{
			info:     info,
			scaling:  cfg,
			capturer: capturer,
			writer:   writer,
			format:   format,
			resample: opts.ResampleToLogical,
		})
	}

	return displays, nil
}

// FromPoint returns the display whose logical bounds contain the global
// logical point (x, y).
func FromPoint(displays []*DisplayCapture, x, y int) (*DisplayCapture, error) {
	for _, d := range displays {
		if d.info.Contains(x, y) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: (%d, %d)", ErrNoDisplayAtPoint, x, y)
}

// Info returns the display as enumerated.
func (d *DisplayCapture) Info() display.Info { return d.info }

// Scaling returns the resolved scale of the display.
func (d *DisplayCapture) Scaling() scaling.Config { return d.scaling }

// PhysicalRect translates a logical request into the physical rectangle
// that would be captured, applying the same validation as CaptureScaledArea.
func (d *DisplayCapture) PhysicalRect(req Request) (image.Rectangle, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: %dx%d", ErrInvalidCaptureArea, req.Width, req.Height)
	}
	if req.X < 0 || req.Y < 0 {
		return image.Rectangle{}, fmt.Errorf("%w: origin (%d, %d) is negative on display %s",
			ErrCaptureAreaOutOfBounds, req.X, req.Y, d.info.ID)
	}

	// Logical bounds first; no out of range value reaches the float math.
	logical := d.info.Logical
	if req.X > logical.Width-req.Width || req.Y > logical.Height-req.Height {
		return image.Rectangle{}, fmt.Errorf("%w: logical (%d, %d) %dx%d exceeds %s on display %s",
			ErrCaptureAreaOutOfBounds, req.X, req.Y, req.Width, req.Height, logical, d.info.ID)
	}

	px, py := d.scaling.ScaleCoordinate(req.X, req.Y)
	pw, ph := d.scaling.ScaleDimension(req.Width, req.Height)
	rect := image.Rect(px, py, px+pw, py+ph)

	bounds := image.Rect(0, 0, d.info.Physical.Width, d.info.Physical.Height)
	if !rect.In(bounds) {
		return image.Rectangle{}, fmt.Errorf("%w: physical %v exceeds %s on display %s",
			ErrCaptureAreaOutOfBounds, rect, d.info.Physical, d.info.ID)
	}
	return rect, nil
}

// CaptureScaledArea captures a logical rectangle of the display. The image
// has physical dimensions; the result is tagged with the logical size.
func (d *DisplayCapture) CaptureScaledArea(x, y, width, height int) (*Result, error) {
	rect, err := d.PhysicalRect(Request{X: x, Y: y, Width: width, Height: height})
	if err != nil {
		return nil, err
	}

	img, err := d.grab(rect)
	if err != nil {
		return nil, err
	}

	return &Result{
		Image:    img,
		Logical:  display.Size{Width: width, Height: height},
		Physical: rect,
	}, nil
}

// CaptureFull captures the whole display at its physical resolution.
func (d *DisplayCapture) CaptureFull() (*Result, error) {
	rect := image.Rect(0, 0, d.info.Physical.Width, d.info.Physical.Height)

	img, err := d.grab(rect)
	if err != nil {
		return nil, err
	}

	return &Result{
		Image:    img,
		Logical:  d.info.Logical,
		Physical: rect,
	}, nil
}

func (d *DisplayCapture) grab(rect image.Rectangle) (*image.RGBA, error) {
	logger.WithDisplay("screen", d.info.ID).Debug().
		Str("physical", rect.String()).
		Str("capturer", d.capturer.Name()).
		Msg("Capturing")

	img, err := d.capturer.CaptureRegion(d.info.ID, rect)
	if err != nil {
		return nil, fmt.Errorf("%w: display %s: %w", ErrCaptureFailed, d.info.ID, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: display %s: capturer returned no image", ErrCaptureFailed, d.info.ID)
	}
	if got := img.Bounds(); got.Dx() != rect.Dx() || got.Dy() != rect.Dy() {
		return nil, fmt.Errorf("%w: display %s: capturer returned %dx%d, want %dx%d",
			ErrCaptureFailed, d.info.ID, got.Dx(), got.Dy(), rect.Dx(), rect.Dy())
	}
	return img, nil
}
