// Package scaling resolves the logical-to-physical scale of a display and
// converts capture geometry between the two spaces.
//
// A Config is a plain value derived from a display.Info by Determine. It has
// no mutable state, so it can be shared freely between goroutines.
package scaling

import (
	"errors"
	"fmt"
	"math"

	"github.com/bryanchriswhite/ScaleShot/internal/display"
)

const (
	// SnapTolerance is the relative distance from 1.0 within which an extra
	// scale is treated as exactly 1.0.
	SnapTolerance = 0.005

	// UniformTolerance is the relative difference allowed between the X and
	// Y totals for Scale to report a single factor.
	UniformTolerance = 0.005

	// FallbackDPIScale is used when the DPI probe cannot answer.
	FallbackDPIScale = 1.0
)

var (
	// ErrInvalidDisplayGeometry is returned by Determine for displays whose
	// reported sizes cannot be reconciled.
	ErrInvalidDisplayGeometry = errors.New("invalid display geometry")

	// ErrNonUniformScale is returned by Scale when the axes disagree.
	ErrNonUniformScale = errors.New("non-uniform scale unsupported")
)

// Axis holds the resolved factors for one axis.
type Axis struct {
	Extra float64 `json:"extra"`
	Total float64 `json:"total"`
}

// Config is the resolved scale of one display.
type Config struct {
	displayID      string
	dpi            float64
	x, y           Axis
	usedFallback   bool
	fallbackReason string
}

// Determine derives the scale of a display from its reported geometry and the
// DPI reported by probe. A failing probe is not an error: the DPI scale falls
// back to 1.0 and UsedFallback reports true.
func Determine(info display.Info, probe display.DPIProbe) (Config, error) {
	if info.Logical.Width <= 0 || info.Logical.Height <= 0 {
		return Config{}, fmt.Errorf("%w: display %s has logical size %s",
			ErrInvalidDisplayGeometry, info.ID, info.Logical)
	}
	if info.Physical.Width < info.Logical.Width || info.Physical.Height < info.Logical.Height {
		return Config{}, fmt.Errorf("%w: display %s has physical size %s smaller than logical size %s",
			ErrInvalidDisplayGeometry, info.ID, info.Physical, info.Logical)
	}

	c := Config{displayID: info.ID}

	dpi, err := probeDPI(probe, info)
	if err != nil {
		c.dpi = FallbackDPIScale
		c.usedFallback = true
		c.fallbackReason = err.Error()
	} else {
		c.dpi = dpi
	}

	c.x = resolveAxis(info.Logical.Width, info.Physical.Width, c.dpi)
	c.y = resolveAxis(info.Logical.Height, info.Physical.Height, c.dpi)
	return c, nil
}

func probeDPI(probe display.DPIProbe, info display.Info) (float64, error) {
	if probe == nil {
		return 0, display.ErrDPIUnavailable
	}
	dpi, err := probe.DPIScale(info)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(dpi) || math.IsInf(dpi, 0) || dpi <= 0 {
		return 0, fmt.Errorf("%w: probe returned %v", display.ErrDPIUnavailable, dpi)
	}
	return dpi, nil
}

// resolveAxis reconciles the physical size against logical*dpi. The snap is
// only taken when it keeps total*logical within one pixel of physical.
func resolveAxis(logical, physical int, dpi float64) Axis {
	expected := float64(logical) * dpi
	extra := float64(physical) / expected
	if math.Abs(extra-1) <= SnapTolerance && math.Abs(expected-float64(physical)) <= 1 {
		extra = 1
	}
	return Axis{Extra: extra, Total: dpi * extra}
}

// DisplayID returns the id of the display the config was derived from.
func (c Config) DisplayID() string { return c.displayID }

// DPIScale returns the OS DPI scale, or 1.0 if the probe fell back.
func (c Config) DPIScale() float64 { return c.dpi }

// UsedFallback reports whether the DPI scale is the fallback value.
func (c Config) UsedFallback() bool { return c.usedFallback }

// FallbackReason describes why the probe failed. Empty unless UsedFallback.
func (c Config) FallbackReason() string { return c.fallbackReason }

// X returns the horizontal factors.
func (c Config) X() Axis { return c.x }

// Y returns the vertical factors.
func (c Config) Y() Axis { return c.y }

// Uniform reports whether both axes share a scale within UniformTolerance.
func (c Config) Uniform() bool {
	hi := math.Max(c.x.Total, c.y.Total)
	if hi == 0 {
		return true
	}
	return math.Abs(c.x.Total-c.y.Total)/hi <= UniformTolerance
}

// Scale returns the single total scale of the display. It fails with
// ErrNonUniformScale rather than picking one axis.
func (c Config) Scale() (float64, error) {
	if !c.Uniform() {
		return 0, fmt.Errorf("%w: display %s scales %.4f horizontally and %.4f vertically",
			ErrNonUniformScale, c.displayID, c.x.Total, c.y.Total)
	}
	return c.x.Total, nil
}

// ScaleCoordinate maps a display-local logical point to physical pixels.
// Results are clamped to zero.
func (c Config) ScaleCoordinate(x, y int) (int, int) {
	return clampMin(round(float64(x)*c.x.Total), 0),
		clampMin(round(float64(y)*c.y.Total), 0)
}

// ScaleDimension maps a logical size to physical pixels, never below one
// pixel per axis.
func (c Config) ScaleDimension(w, h int) (int, int) {
	return clampMin(round(float64(w)*c.x.Total), 1),
		clampMin(round(float64(h)*c.y.Total), 1)
}

// UnscaleDimension maps a physical size back to logical units. It is meant
// for labelling output; capture geometry always comes from the logical
// request itself.
func (c Config) UnscaleDimension(w, h int) (int, int) {
	return clampMin(round(float64(w)/c.x.Total), 1),
		clampMin(round(float64(h)/c.y.Total), 1)
}

// Percent renders the total scale as whole percent, e.g. "125", or
// "125x150" when the axes differ.
func (c Config) Percent() string {
	px := round(c.x.Total * 100)
	if c.Uniform() {
		return fmt.Sprintf("%d", px)
	}
	return fmt.Sprintf("%dx%d", px, round(c.y.Total*100))
}

// Summary is the serialisable view of a Config.
type Summary struct {
	DPIScale       float64 `json:"dpi_scale"`
	X              Axis    `json:"x"`
	Y              Axis    `json:"y"`
	Uniform        bool    `json:"uniform"`
	UsedFallback   bool    `json:"used_fallback"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
}

// Summary returns the exported fields of c.
func (c Config) Summary() Summary {
	return Summary{
		DPIScale:       c.dpi,
		X:              c.x,
		Y:              c.y,
		Uniform:        c.Uniform(),
		UsedFallback:   c.usedFallback,
		FallbackReason: c.fallbackReason,
	}
}

// round is half away from zero.
// round saturates at the int range; float to int conversion of an out of
// range value is implementation defined.
func round(v float64) int {
	r := math.Round(v)
	switch {
	case r >= float64(math.MaxInt):
		return math.MaxInt
	case r <= float64(math.MinInt):
		return math.MinInt
	}
	return int(r)
}

func clampMin(v, lo int) int {
	if v < lo {
		return lo
	}
	return v
}
