package screen

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bryanchriswhite/ScaleShot/internal/display"
	"github.com/bryanchriswhite/ScaleShot/internal/logger"
	"github.com/bryanchriswhite/ScaleShot/internal/output"
)

const defaultBaseName = "screenshot"

var (
	saveSeq atomic.Uint64
	now     = time.Now
)

// SaveScreenshot writes img under outputDir and returns the path. The file
// name records the logical size and total scale so the capture can be
// audited from the name alone, e.g.
//
//	display_100x100_scale125_20261018T101500042-0001.png
//
// Every call in a process gets a distinct name.
func (d *DisplayCapture) SaveScreenshot(img image.Image, baseName string, logical display.Size, outputDir string) (string, error) {
	if img == nil {
		return "", fmt.Errorf("%w: no image", ErrPersistenceFailed)
	}

	path := filepath.Join(outputDir, d.Filename(baseName, logical))

	if d.resample && logical.Width > 0 && logical.Height > 0 {
		img = output.Resample(img, logical.Width, logical.Height)
	}

	if err := d.writer.Write(img, path); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	logger.WithDisplay("screen", d.info.ID).Info().
		Str("path", path).
		Str("logical", logical.String()).
		Msg("Screenshot saved")
	return path, nil
}

// Filename builds a unique file name for a capture of the given logical size.
func (d *DisplayCapture) Filename(baseName string, logical display.Size) string {
	return fmt.Sprintf("%s_%dx%d_scale%s_%s%s",
		sanitizeBaseName(baseName),
		logical.Width, logical.Height,
		d.scaling.Percent(),
		discriminator(),
		output.Extension(d.format),
	)
}

func discriminator() string {
	t := now().UTC()
	seq := saveSeq.Add(1)
	return fmt.Sprintf("%s%03d-%04d", t.Format("20060102T150405"), t.Nanosecond()/int(time.Millisecond), seq)
}

func sanitizeBaseName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultBaseName
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
}
