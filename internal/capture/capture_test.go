package capture

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBGRAToRGBA(t *testing.T) {
	data := []byte{
		0x10, 0x20, 0x30, 0x00, 0x01, 0x02, 0x03, 0x00,
		0xAA, 0xBB, 0xCC, 0x00, 0xFF, 0xFF, 0xFF, 0x00,
	}

	img, err := bgraToRGBA(data, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, color.RGBA{R: 0x30, G: 0x20, B: 0x10, A: 0xFF}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 0x03, G: 0x02, B: 0x01, A: 0xFF}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{R: 0xCC, G: 0xBB, B: 0xAA, A: 0xFF}, img.RGBAAt(0, 1))
}

func TestBGRAToRGBAShortData(t *testing.T) {
	_, err := bgraToRGBA(make([]byte, 12), 2, 2)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	src := image.NewRGBA(image.Rect(100, 50, 103, 52))
	src.SetRGBA(100, 50, color.RGBA{R: 9, A: 255})

	out := normalize(src)
	assert.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds())
	assert.Equal(t, uint8(9), out.RGBAAt(0, 0).R)

	zero := image.NewRGBA(image.Rect(0, 0, 1, 1))
	assert.Same(t, zero, normalize(zero))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("wayland", 0)
	assert.Error(t, err)
}
