package output

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xFF})
		}
	}
	return img
}

func TestNormalizeFormat(t *testing.T) {
	tests := map[string]string{
		"":      FormatPNG,
		"png":   FormatPNG,
		".PNG":  FormatPNG,
		"jpg":   FormatJPEG,
		".jpeg": FormatJPEG,
		"bmp":   FormatBMP,
	}
	for in, want := range tests {
		got, err := NormalizeFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeFormat("gif")
	assert.Error(t, err)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", Extension(FormatPNG))
	assert.Equal(t, ".jpg", Extension(FormatJPEG))
	assert.Equal(t, ".bmp", Extension(FormatBMP))
}

func TestFileWriterPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shot.png")
	require.NoError(t, FileWriter{}.Write(testImage(4, 3), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	r, g, _, _ := img.At(3, 2).RGBA()
	assert.Equal(t, uint32(3), r>>8)
	assert.Equal(t, uint32(2), g>>8)
}

func TestFileWriterBMPAndJPEG(t *testing.T) {
	dir := t.TempDir()

	bmpPath := filepath.Join(dir, "shot.bmp")
	require.NoError(t, FileWriter{}.Write(testImage(5, 5), bmpPath))
	data, err := os.ReadFile(bmpPath)
	require.NoError(t, err)
	img, err := bmp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())

	jpgPath := filepath.Join(dir, "shot.jpg")
	require.NoError(t, FileWriter{JPEGQuality: 75}.Write(testImage(8, 8), jpgPath))
	info, err := os.Stat(jpgPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestFileWriterErrors(t *testing.T) {
	dir := t.TempDir()

	err := FileWriter{}.Write(testImage(1, 1), filepath.Join(dir, "shot.gif"))
	assert.Error(t, err)

	// Parent path is a regular file.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	err = FileWriter{}.Write(testImage(1, 1), filepath.Join(blocker, "shot.png"))
	assert.Error(t, err)
}

func TestResample(t *testing.T) {
	src := testImage(20, 10)

	assert.Same(t, image.Image(src), Resample(src, 20, 10))

	out := Resample(src, 16, 8)
	assert.Equal(t, image.Rect(0, 0, 16, 8), out.Bounds())
}
