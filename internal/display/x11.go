package display

import (
	"bufio"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ScaleShot/internal/logger"
)

// baseDPI is the DPI that corresponds to a scale of 1.0.
const baseDPI = 96.0

// X11Enumerator lists monitors through the RandR extension and reads the
// desktop DPI from the Xft.dpi resource.
//
// RandR reports two sizes per CRTC: the mode (what the panel renders) and
// the CRTC footprint in the root window, which differs when a transform
// such as `xrandr --scale` is active. The mode is the physical size and the
// footprint divided by the DPI scale is the logical size, so any transform
// shows up as extra scale.
type X11Enumerator struct {
	conn *xgb.Conn
	root xproto.Window
	mu   sync.Mutex

	// origins maps display ids to CRTC origins in root window pixels, as of
	// the last Displays call.
	origins map[string]image.Point

	// dpiOverride replaces Xft.dpi when positive.
	dpiOverride float64
}

// NewX11Enumerator connects to the X server named by $DISPLAY.
func NewX11Enumerator() (*X11Enumerator, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	e, err := NewX11EnumeratorWithConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return e, nil
}

// NewX11EnumeratorWithConn uses an existing connection. The caller keeps
// ownership of conn.
func NewX11EnumeratorWithConn(conn *xgb.Conn) (*X11Enumerator, error) {
	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("RandR extension not available: %w", err)
	}

	setup := xproto.Setup(conn)
	return &X11Enumerator{
		conn:    conn,
		root:    setup.DefaultScreen(conn).Root,
		origins: make(map[string]image.Point),
	}, nil
}

// Close closes the X connection.
func (e *X11Enumerator) Close() {
	e.conn.Close()
}

// Conn returns the X connection, for capturers sharing it.
func (e *X11Enumerator) Conn() *xgb.Conn {
	return e.conn
}

// SetDPIOverride forces the DPI scale used for logical sizes and reported
// by DPIScale. Zero or less restores the Xft.dpi probe.
func (e *X11Enumerator) SetDPIOverride(scale float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dpiOverride = scale
}

// Displays implements Enumerator.
func (e *X11Enumerator) Displays() ([]Info, error) {
	log := logger.WithComponent("x11-display")

	resources, err := randr.GetScreenResourcesCurrent(e.conn, e.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(e.conn, e.root).Reply(); err == nil {
		primary = reply.Output
	}

	modes := make(map[randr.Mode]randr.ModeInfo, len(resources.Modes))
	for _, mode := range resources.Modes {
		modes[randr.Mode(mode.Id)] = mode
	}

	dpi, dpiErr := e.scale()
	if dpiErr != nil {
		log.Debug().Err(dpiErr).Msg("Xft.dpi not set, logical sizes equal root window sizes")
		dpi = 1
	}

	var displays []Info
	origins := make(map[string]image.Point)
	for _, output := range resources.Outputs {
		oi, err := randr.GetOutputInfo(e.conn, output, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get output info: %w", err)
		}
		if oi.Connection != randr.ConnectionConnected || oi.Crtc == 0 {
			continue
		}

		ci, err := randr.GetCrtcInfo(e.conn, oi.Crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get crtc info for %s: %w", string(oi.Name), err)
		}
		mode, ok := modes[ci.Mode]
		if !ok || ci.Mode == 0 {
			continue
		}

		info := crtcInfo(string(oi.Name), ci, mode, dpi)
		info.Primary = output == primary
		displays = append(displays, info)
		origins[info.ID] = image.Pt(int(ci.X), int(ci.Y))

		log.Debug().
			Str("output", info.ID).
			Str("logical", info.Logical.String()).
			Str("physical", info.Physical.String()).
			Int("rotation", int(info.Rotation)).
			Msg("Found display")
	}

	if len(displays) == 0 {
		return nil, ErrNoDisplays
	}

	// Primary output unset: treat the first as primary like most WMs do.
	if primary == 0 {
		displays[0].Primary = true
	}

	e.mu.Lock()
	e.origins = origins
	e.mu.Unlock()

	return displays, nil
}

// crtcInfo converts one RandR CRTC into an Info.
func crtcInfo(name string, ci *randr.GetCrtcInfoReply, mode randr.ModeInfo, dpi float64) Info {
	rot := rotationFromRandr(ci.Rotation)

	physical := Size{Width: int(mode.Width), Height: int(mode.Height)}
	if rot.Swapped() {
		physical.Width, physical.Height = physical.Height, physical.Width
	}

	return Info{
		ID: name,
		Position: Point{
			X: int(math.Round(float64(ci.X) / dpi)),
			Y: int(math.Round(float64(ci.Y) / dpi)),
		},
		Logical: Size{
			Width:  int(math.Round(float64(ci.Width) / dpi)),
			Height: int(math.Round(float64(ci.Height) / dpi)),
		},
		Physical: physical,
		Rotation: rot,
	}
}

func rotationFromRandr(r uint16) Rotation {
	switch {
	case r&randr.RotationRotate90 != 0:
		return Rotate90
	case r&randr.RotationRotate180 != 0:
		return Rotate180
	case r&randr.RotationRotate270 != 0:
		return Rotate270
	default:
		return Rotate0
	}
}

// Origin returns the root window position of a display enumerated by the
// last Displays call.
func (e *X11Enumerator) Origin(displayID string) (image.Point, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.origins[displayID]
	if !ok {
		return image.Point{}, fmt.Errorf("unknown display %q", displayID)
	}
	return p, nil
}

// DPIScale implements DPIProbe. X11 has a single desktop-wide DPI, so every
// display reports the same value.
func (e *X11Enumerator) DPIScale(Info) (float64, error) {
	return e.scale()
}

func (e *X11Enumerator) scale() (float64, error) {
	e.mu.Lock()
	override := e.dpiOverride
	e.mu.Unlock()

	if override > 0 {
		return override, nil
	}
	return e.desktopScale()
}

func (e *X11Enumerator) desktopScale() (float64, error) {
	atom, err := xproto.InternAtom(e.conn, true, uint16(len("RESOURCE_MANAGER")), "RESOURCE_MANAGER").Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern RESOURCE_MANAGER: %w", err)
	}
	if atom.Atom == xproto.AtomNone {
		return 0, ErrDPIUnavailable
	}

	prop, err := xproto.GetProperty(e.conn, false, e.root, atom.Atom, xproto.AtomString, 0, 1<<16).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to read RESOURCE_MANAGER: %w", err)
	}

	dpi, ok := parseXftDPI(string(prop.Value))
	if !ok {
		return 0, ErrDPIUnavailable
	}
	return dpi / baseDPI, nil
}

// parseXftDPI extracts Xft.dpi from an X resource database string.
func parseXftDPI(resources string) (float64, bool) {
	scanner := bufio.NewScanner(strings.NewReader(resources))
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), ":")
		if !found || strings.TrimSpace(key) != "Xft.dpi" {
			continue
		}
		dpi, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || dpi <= 0 {
			return 0, false
		}
		return dpi, true
	}
	return 0, false
}
