package display

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/kbinani/screenshot"
)

const screenshotIDPrefix = "display-"

// ScreenshotEnumerator lists displays through github.com/kbinani/screenshot.
//
// The library only reports capture-space bounds, which are treated as the
// physical size. The logical size is derived from the DPI scale reported by
// Probe; without one, logical and physical are equal.
type ScreenshotEnumerator struct {
	Probe DPIProbe
}

// Displays implements Enumerator.
func (e ScreenshotEnumerator) Displays() ([]Info, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, ErrNoDisplays
	}

	displays := make([]Info, 0, n)
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		displays = append(displays, boundsInfo(i, bounds, e.Probe))
	}
	return displays, nil
}

func boundsInfo(index int, bounds image.Rectangle, probe DPIProbe) Info {
	info := Info{
		ID:       screenshotIDPrefix + strconv.Itoa(index),
		Physical: Size{Width: bounds.Dx(), Height: bounds.Dy()},
		Rotation: Rotate0,
		Primary:  index == 0,
	}

	dpi := 1.0
	if probe != nil {
		if v, err := probe.DPIScale(info); err == nil && v > 0 {
			dpi = v
		}
	}

	info.Position = Point{
		X: int(math.Round(float64(bounds.Min.X) / dpi)),
		Y: int(math.Round(float64(bounds.Min.Y) / dpi)),
	}
	info.Logical = Size{
		Width:  int(math.Round(float64(bounds.Dx()) / dpi)),
		Height: int(math.Round(float64(bounds.Dy()) / dpi)),
	}
	return info
}

// DPIScale implements DPIProbe by delegating to Probe.
func (e ScreenshotEnumerator) DPIScale(info Info) (float64, error) {
	if e.Probe == nil {
		return 0, ErrDPIUnavailable
	}
	return e.Probe.DPIScale(info)
}

// Origin returns the capture-space origin of a display.
func (e ScreenshotEnumerator) Origin(displayID string) (image.Point, error) {
	index, err := screenshotIndex(displayID)
	if err != nil {
		return image.Point{}, err
	}
	if index >= screenshot.NumActiveDisplays() {
		return image.Point{}, fmt.Errorf("display %q is no longer active", displayID)
	}
	return screenshot.GetDisplayBounds(index).Min, nil
}

func screenshotIndex(displayID string) (int, error) {
	raw, ok := strings.CutPrefix(displayID, screenshotIDPrefix)
	if !ok {
		return 0, fmt.Errorf("unknown display %q", displayID)
	}
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("unknown display %q", displayID)
	}
	return index, nil
}
