package display

import "errors"

var (
	// ErrDPIUnavailable means the platform exposes no DPI scale for a display.
	ErrDPIUnavailable = errors.New("dpi scale unavailable")

	// ErrNoDisplays means enumeration succeeded but found nothing attached.
	ErrNoDisplays = errors.New("no active displays")
)
