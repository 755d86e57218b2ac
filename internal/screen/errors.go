package screen

import (
	"errors"

	"github.com/bryanchriswhite/ScaleShot/internal/scaling"
)

var (
	// ErrInvalidDisplayGeometry means a display reported sizes that cannot be
	// reconciled into a scale.
	ErrInvalidDisplayGeometry = scaling.ErrInvalidDisplayGeometry

	// ErrNonUniformScale is returned where a single scale factor is required
	// but the display scales its axes differently.
	ErrNonUniformScale = scaling.ErrNonUniformScale

	// ErrDisplayEnumerationFailed means the display list could not be built.
	ErrDisplayEnumerationFailed = errors.New("display enumeration failed")

	// ErrInvalidCaptureArea means the requested width or height is not positive.
	ErrInvalidCaptureArea = errors.New("invalid capture area")

	// ErrCaptureAreaOutOfBounds means the translated rectangle does not fit on
	// the display. Requests are never clipped.
	ErrCaptureAreaOutOfBounds = errors.New("capture area out of bounds")

	// ErrCaptureFailed wraps a failure of the raw capturer.
	ErrCaptureFailed = errors.New("capture failed")

	// ErrPersistenceFailed wraps a failure to encode or write a screenshot.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrNoDisplayAtPoint means no display contains the requested point.
	ErrNoDisplayAtPoint = errors.New("no display at point")
)
