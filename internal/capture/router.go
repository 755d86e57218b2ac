package capture

import (
	"fmt"
	"os"
	"strings"

	"github.com/bryanchriswhite/ScaleShot/internal/display"
	"github.com/bryanchriswhite/ScaleShot/internal/logger"
)

// Backend names accepted by Open.
const (
	BackendAuto       = "auto"
	BackendX11        = "x11"
	BackendScreenshot = "screenshot"
)

// Backend bundles the enumeration, DPI and capture collaborators of one
// platform binding.
type Backend struct {
	Name       string
	Enumerator display.Enumerator
	Probe      display.DPIProbe
	Capturer   Capturer
	close      func()
}

// Close releases any connection held by the backend.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open selects a backend by name. "auto" prefers X11 when $DISPLAY is set
// and falls back to the screenshot library otherwise. A positive
// dpiOverride replaces whatever DPI the platform reports.
func Open(name string, dpiOverride float64) (*Backend, error) {
	log := logger.WithComponent("capture-router")

	switch strings.ToLower(name) {
	case "", BackendAuto:
		if os.Getenv("DISPLAY") != "" {
			b, err := openX11(dpiOverride)
			if err == nil {
				return b, nil
			}
			log.Warn().Err(err).Msg("X11 backend not available, falling back to screenshot backend")
		}
		return openScreenshot(dpiOverride), nil
	case BackendX11:
		return openX11(dpiOverride)
	case BackendScreenshot:
		return openScreenshot(dpiOverride), nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q (use auto, x11 or screenshot)", name)
	}
}

func openX11(dpiOverride float64) (*Backend, error) {
	enum, err := display.NewX11Enumerator()
	if err != nil {
		return nil, err
	}
	enum.SetDPIOverride(dpiOverride)

	logger.WithComponent("capture-router").Info().Msg("X11 backend initialized")
	return &Backend{
		Name:       BackendX11,
		Enumerator: enum,
		Probe:      enum,
		Capturer:   NewX11Capturer(enum.Conn(), enum),
		close:      enum.Close,
	}, nil
}

func openScreenshot(dpiOverride float64) *Backend {
	enum := display.ScreenshotEnumerator{Probe: display.OverrideDPI(nil, dpiOverride)}

	logger.WithComponent("capture-router").Info().Msg("Screenshot backend initialized")
	return &Backend{
		Name:       BackendScreenshot,
		Enumerator: enum,
		Probe:      enum,
		Capturer:   NewScreenshotCapturer(enum),
	}
}
