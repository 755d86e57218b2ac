package display

import (
	"fmt"
	"image"
)

// Rotation is the clockwise rotation of a display in degrees.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Valid reports whether r is one of the four supported rotations.
func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// Swapped reports whether width and height are exchanged by the rotation.
func (r Rotation) Swapped() bool {
	return r == Rotate90 || r == Rotate270
}

// Size is a width/height pair in either logical or physical pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Point is a position in the global logical desktop space.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Info describes one monitor as reported by an Enumerator.
type Info struct {
	ID       string   `json:"id"`
	Position Point    `json:"position"`
	Logical  Size     `json:"logical_size"`
	Physical Size     `json:"physical_size"`
	Rotation Rotation `json:"rotation"`
	Primary  bool     `json:"is_primary"`
}

// LogicalBounds returns the display rectangle in global logical coordinates.
func (i Info) LogicalBounds() image.Rectangle {
	return image.Rect(
		i.Position.X,
		i.Position.Y,
		i.Position.X+i.Logical.Width,
		i.Position.Y+i.Logical.Height,
	)
}

// Contains reports whether the global logical point (x, y) is on this display.
func (i Info) Contains(x, y int) bool {
	return image.Pt(x, y).In(i.LogicalBounds())
}

// Enumerator lists the displays currently attached to the system.
type Enumerator interface {
	Displays() ([]Info, error)
}

// DPIProbe reports the OS DPI scale for a display (1.0 == 96 DPI / 100%).
// An error means the scale is unavailable, not that the display is unusable.
type DPIProbe interface {
	DPIScale(info Info) (float64, error)
}

// FixedDPI is a DPIProbe that returns the same scale for every display.
// A zero value reports the scale as unavailable.
type FixedDPI float64

// DPIScale implements DPIProbe.
func (f FixedDPI) DPIScale(Info) (float64, error) {
	if f <= 0 {
		return 0, ErrDPIUnavailable
	}
	return float64(f), nil
}

// OverrideDPI wraps a probe so that a positive override always wins.
func OverrideDPI(probe DPIProbe, override float64) DPIProbe {
	if override > 0 {
		return FixedDPI(override)
	}
	if probe == nil {
		return FixedDPI(0)
	}
	return probe
}
