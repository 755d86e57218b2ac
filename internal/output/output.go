package output

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Supported encodings.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatBMP  = "bmp"
)

// DefaultJPEGQuality is used when no quality is configured.
const DefaultJPEGQuality = 90

// Writer persists an image at path.
type Writer interface {
	Write(img image.Image, path string) error
}

// NormalizeFormat canonicalises a format name, accepting "jpg".
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatJPEG, "jpg":
		return FormatJPEG, nil
	case FormatBMP:
		return FormatBMP, nil
	default:
		return "", fmt.Errorf("unsupported image format: %s (use png, jpeg or bmp)", format)
	}
}

// Extension returns the file extension for a normalized format.
func Extension(format string) string {
	if format == FormatJPEG {
		return ".jpg"
	}
	return "." + format
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (string, error) {
	return NormalizeFormat(filepath.Ext(path))
}

// ContentType returns the MIME type for a normalized format.
func ContentType(format string) string {
	switch format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatBMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format string, jpegQuality int) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		if jpegQuality <= 0 || jpegQuality > 100 {
			jpegQuality = DefaultJPEGQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format: %s", format)
	}
}

// Resample scales img to width x height with Catmull-Rom interpolation. It
// returns img unchanged when it already has that size.
func Resample(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
