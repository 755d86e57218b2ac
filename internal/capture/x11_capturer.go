package capture

import (
	"fmt"
	"image"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ScaleShot/internal/logger"
)

// X11Capturer reads display regions from the root window with GetImage.
type X11Capturer struct {
	conn    *xgb.Conn
	root    xproto.Window
	screen  *xproto.ScreenInfo
	locator Locator
	mu      sync.Mutex
}

// NewX11Capturer creates a capturer on conn. Display ids are resolved to
// root window offsets through locator.
func NewX11Capturer(conn *xgb.Conn, locator Locator) *X11Capturer {
	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	return &X11Capturer{
		conn:    conn,
		root:    screen.Root,
		screen:  screen,
		locator: locator,
	}
}

// Name returns the capturer name
func (c *X11Capturer) Name() string {
	return "X11"
}

// CaptureRegion implements Capturer.
func (c *X11Capturer) CaptureRegion(displayID string, r image.Rectangle) (*image.RGBA, error) {
	origin, err := c.locator.Origin(displayID)
	if err != nil {
		return nil, err
	}
	abs := r.Add(origin)

	depth := int(c.screen.RootDepth)
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("unsupported root depth %d", depth)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	logger.WithDisplay("x11-capturer", displayID).Debug().
		Int("x", abs.Min.X).
		Int("y", abs.Min.Y).
		Int("width", abs.Dx()).
		Int("height", abs.Dy()).
		Msg("Capturing region")

	reply, err := xproto.GetImage(
		c.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(c.root),
		int16(abs.Min.X), int16(abs.Min.Y),
		uint16(abs.Dx()), uint16(abs.Dy()),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return bgraToRGBA(reply.Data, abs.Dx(), abs.Dy())
}

// bgraToRGBA converts a 32bpp ZPixmap buffer into an RGBA image.
func bgraToRGBA(data []byte, width, height int) (*image.RGBA, error) {
	if len(data) < width*height*4 {
		return nil, fmt.Errorf("short image data: got %d bytes, want %d", len(data), width*height*4)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		o := i * 4
		img.Pix[o] = data[o+2]
		img.Pix[o+1] = data[o+1]
		img.Pix[o+2] = data[o]
		img.Pix[o+3] = 255
	}
	return img, nil
}
