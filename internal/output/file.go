package output

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/bryanchriswhite/ScaleShot/internal/logger"
)

// FileWriter encodes images to disk, choosing the format from the file
// extension.
type FileWriter struct {
	JPEGQuality int
}

// Write implements Writer. The parent directory is created if needed. A
// failure after the file was created leaves it in place.
func (fw FileWriter) Write(img image.Image, path string) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := Encode(f, img, format, fw.JPEGQuality); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	logger.WithComponent("output").Debug().
		Str("path", path).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Image written")
	return nil
}
