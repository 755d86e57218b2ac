package scaling

import (
	"errors"
	"math"
	"testing"

	"github.com/bryanchriswhite/ScaleShot/internal/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

type probeFunc func(display.Info) (float64, error)

func (f probeFunc) DPIScale(info display.Info) (float64, error) { return f(info) }

func info(lw, lh, pw, ph int) display.Info {
	return display.Info{
		ID:       "test",
		Logical:  display.Size{Width: lw, Height: lh},
		Physical: display.Size{Width: pw, Height: ph},
	}
}

func TestDetermineDocumentedFixture(t *testing.T) {
	cfg, err := Determine(info(1536, 864, 1920, 1080), display.FixedDPI(1.25))
	require.NoError(t, err)

	assert.False(t, cfg.UsedFallback())
	assert.InDelta(t, 1.25, cfg.DPIScale(), eps)
	assert.Equal(t, 1.0, cfg.X().Extra)
	assert.Equal(t, 1.0, cfg.Y().Extra)

	scale, err := cfg.Scale()
	require.NoError(t, err)
	assert.InDelta(t, 1.25, scale, eps)
	assert.Equal(t, "125", cfg.Percent())
}

func TestDetermineUniformMultiples(t *testing.T) {
	tests := []struct {
		name   string
		lw, lh int
		k      float64
	}{
		{"identity", 1920, 1080, 1},
		{"125%", 1600, 900, 1.25},
		{"150%", 1280, 720, 1.5},
		{"175%", 1024, 768, 1.75},
		{"200%", 1280, 720, 2},
		{"300%", 1280, 800, 3},
	}

	for _, tt := range tests {
		pw := int(float64(tt.lw) * tt.k)
		ph := int(float64(tt.lh) * tt.k)

		for _, probe := range []struct {
			name string
			dpi  display.DPIProbe
		}{
			{"os reports scale", display.FixedDPI(tt.k)},
			{"os reports 100%", display.FixedDPI(1)},
			{"probe unavailable", display.FixedDPI(0)},
		} {
			t.Run(tt.name+"/"+probe.name, func(t *testing.T) {
				cfg, err := Determine(info(tt.lw, tt.lh, pw, ph), probe.dpi)
				require.NoError(t, err)

				scale, err := cfg.Scale()
				require.NoError(t, err)
				assert.InDelta(t, tt.k, scale, 1e-6)

				w, h := cfg.ScaleDimension(tt.lw, tt.lh)
				assert.Equal(t, pw, w)
				assert.Equal(t, ph, h)
			})
		}
	}
}

func TestDetermineRejectsInvalidGeometry(t *testing.T) {
	tests := []struct {
		name string
		in   display.Info
	}{
		{"zero logical width", info(0, 600, 800, 600)},
		{"zero logical height", info(800, 0, 800, 600)},
		{"negative logical", info(-1, 600, 800, 600)},
		{"physical smaller than logical", info(1920, 1080, 1280, 720)},
		{"physical height smaller", info(1920, 1080, 1920, 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Determine(tt.in, display.FixedDPI(1))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDisplayGeometry)
		})
	}
}

func TestDetermineFallback(t *testing.T) {
	probeErr := errors.New("no xft.dpi")

	tests := []struct {
		name  string
		probe display.DPIProbe
	}{
		{"nil probe", nil},
		{"probe error", probeFunc(func(display.Info) (float64, error) { return 0, probeErr })},
		{"NaN", probeFunc(func(display.Info) (float64, error) { return math.NaN(), nil })},
		{"negative", probeFunc(func(display.Info) (float64, error) { return -2, nil })},
		{"infinite", probeFunc(func(display.Info) (float64, error) { return math.Inf(1), nil })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Determine(info(1536, 864, 1920, 1080), tt.probe)
			require.NoError(t, err)

			assert.True(t, cfg.UsedFallback())
			assert.NotEmpty(t, cfg.FallbackReason())
			assert.Equal(t, FallbackDPIScale, cfg.DPIScale())
			// The extra scale absorbs what the DPI probe could not report.
			assert.InDelta(t, 1.25, cfg.X().Extra, eps)
			assert.InDelta(t, 1.25, cfg.X().Total, eps)
			assert.True(t, cfg.Summary().UsedFallback)
		})
	}
}

func TestDetermineSnapsRoundingNoise(t *testing.T) {
	// 1366 * 1.25 = 1707.5, reported as 1708.
	cfg, err := Determine(info(1366, 768, 1708, 960), display.FixedDPI(1.25))
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.X().Extra)
	assert.Equal(t, 1.25, cfg.X().Total)
	assert.Equal(t, "125", cfg.Percent())
}

func TestDetermineDoesNotSnapPastOnePixel(t *testing.T) {
	// Within 0.5% but 15px away: snapping would break total*logical ≈ physical.
	cfg, err := Determine(info(3840, 2160, 3855, 2160), display.FixedDPI(1))
	require.NoError(t, err)

	assert.NotEqual(t, 1.0, cfg.X().Extra)
	assert.InDelta(t, 3855.0/3840.0, cfg.X().Total, eps)
	assert.Equal(t, 1.0, cfg.Y().Extra)
}

func TestDetermineExtraScale(t *testing.T) {
	// OS reports 125% but the panel renders 1.5x logical.
	cfg, err := Determine(info(1280, 720, 1920, 1080), display.FixedDPI(1.25))
	require.NoError(t, err)

	assert.InDelta(t, 1.2, cfg.X().Extra, eps)
	assert.InDelta(t, 1.5, cfg.X().Total, eps)
	assert.InDelta(t, 1.5, cfg.Y().Total, eps)
}

func TestTotalReproducesPhysicalWithinOnePixel(t *testing.T) {
	sizes := []struct{ lw, lh, pw, ph int }{
		{1366, 768, 1708, 960},
		{1536, 864, 1920, 1080},
		{1707, 960, 2560, 1440},
		{2194, 1234, 3840, 2160},
		{1000, 1000, 1250, 1500},
	}
	dpis := []float64{1, 1.25, 1.5, 1.75, 2}

	for _, s := range sizes {
		for _, dpi := range dpis {
			in := info(s.lw, s.lh, s.pw, s.ph)
			cfg, err := Determine(in, display.FixedDPI(dpi))
			require.NoError(t, err)

			assert.InDelta(t, float64(s.pw), cfg.X().Total*float64(s.lw), 1, "%v dpi=%v", s, dpi)
			assert.InDelta(t, float64(s.ph), cfg.Y().Total*float64(s.lh), 1, "%v dpi=%v", s, dpi)
		}
	}
}

func TestNonUniformScale(t *testing.T) {
	cfg, err := Determine(info(1000, 1000, 1250, 1500), display.FixedDPI(1.25))
	require.NoError(t, err)

	assert.False(t, cfg.Uniform())
	assert.InDelta(t, 1.25, cfg.X().Total, eps)
	assert.InDelta(t, 1.5, cfg.Y().Total, eps)

	_, err = cfg.Scale()
	assert.ErrorIs(t, err, ErrNonUniformScale)
	assert.Equal(t, "125x150", cfg.Percent())

	// The per-axis API keeps working.
	w, h := cfg.ScaleDimension(100, 100)
	assert.Equal(t, 125, w)
	assert.Equal(t, 150, h)
}

func TestScaleCoordinate(t *testing.T) {
	cfg, err := Determine(info(1536, 864, 1920, 1080), display.FixedDPI(1.25))
	require.NoError(t, err)

	tests := []struct {
		x, y   int
		px, py int
	}{
		{0, 0, 0, 0},
		{1, 1, 1, 1}, // 1.25 rounds down
		{2, 2, 3, 3}, // 2.5 rounds away from zero
		{300, 300, 375, 375},
		{1535, 863, 1919, 1079},
		{-4, -1, 0, 0}, // clamped
	}

	for _, tt := range tests {
		px, py := cfg.ScaleCoordinate(tt.x, tt.y)
		assert.Equal(t, tt.px, px, "x for (%d,%d)", tt.x, tt.y)
		assert.Equal(t, tt.py, py, "y for (%d,%d)", tt.x, tt.y)
	}
}

func TestScaleSaturatesLargeValues(t *testing.T) {
	cfg, err := Determine(info(1536, 864, 1920, 1080), display.FixedDPI(1.25))
	require.NoError(t, err)

	huge := math.MaxInt64 / 8 * 7
	px, py := cfg.ScaleCoordinate(huge, math.MaxInt64)
	assert.Equal(t, math.MaxInt, px)
	assert.Equal(t, math.MaxInt, py)

	w, h := cfg.ScaleDimension(huge, 10)
	assert.Equal(t, math.MaxInt, w)
	assert.Equal(t, 13, h)
}

func TestScaleCoordinateInverseWithinOnePixel(t *testing.T) {
	for _, s := range []struct{ lw, lh, pw, ph int }{
		{1536, 864, 1920, 1080},
		{1280, 720, 1920, 1080},
		{1707, 960, 2560, 1440},
		{1000, 1000, 1250, 1500},
	} {
		cfg, err := Determine(info(s.lw, s.lh, s.pw, s.ph), display.FixedDPI(1))
		require.NoError(t, err)

		for x := 0; x < s.lw; x += 7 {
			y := x % s.lh
			px, py := cfg.ScaleCoordinate(x, y)
			lx := math.Round(float64(px) / cfg.X().Total)
			ly := math.Round(float64(py) / cfg.Y().Total)
			assert.InDelta(t, float64(x), lx, 1)
			assert.InDelta(t, float64(y), ly, 1)
		}
	}
}

func TestScaleDimensionNeverBelowOne(t *testing.T) {
	tiny := Config{displayID: "tiny", dpi: 0.1, x: Axis{Extra: 1, Total: 0.1}, y: Axis{Extra: 1, Total: 0.1}}

	for _, in := range [][2]int{{1, 1}, {0, 0}, {4, 2}, {-3, 1}} {
		w, h := tiny.ScaleDimension(in[0], in[1])
		assert.GreaterOrEqual(t, w, 1)
		assert.GreaterOrEqual(t, h, 1)
	}

	w, h := tiny.ScaleDimension(100, 50)
	assert.Equal(t, 10, w)
	assert.Equal(t, 5, h)
}

func TestUnscaleDimension(t *testing.T) {
	cfg, err := Determine(info(1536, 864, 1920, 1080), display.FixedDPI(1.25))
	require.NoError(t, err)

	w, h := cfg.UnscaleDimension(125, 125)
	assert.Equal(t, 100, w)
	assert.Equal(t, 100, h)

	w, h = cfg.UnscaleDimension(1920, 1080)
	assert.Equal(t, 1536, w)
	assert.Equal(t, 864, h)

	w, h = cfg.UnscaleDimension(1, 0)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}
