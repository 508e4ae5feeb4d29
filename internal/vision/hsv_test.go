package vision

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	markerRed    = color.RGBA{R: 200, G: 20, B: 20, A: 0xff}
	markerYellow = color.RGBA{R: 220, G: 200, B: 30, A: 0xff}
	markerGreen  = color.RGBA{R: 46, G: 55, B: 51, A: 0xff}
	background   = color.RGBA{R: 128, G: 128, B: 128, A: 0xff}
)

func TestToHSV(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		color color.Color
		want  HSV
	}{
		{"black", color.Black, HSV{0, 0, 0}},
		{"white", color.White, HSV{0, 0, 255}},
		{"pure red", color.RGBA{R: 255, A: 0xff}, HSV{0, 255, 255}},
		{"pure green", color.RGBA{G: 255, A: 0xff}, HSV{60, 255, 255}},
		{"pure blue", color.RGBA{B: 255, A: 0xff}, HSV{120, 255, 255}},
		{"marker red", markerRed, HSV{0, 230, 200}},
		{"marker yellow", markerYellow, HSV{27, 220, 220}},
		{"marker green", markerGreen, HSV{77, 42, 55}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToHSV(tc.color)
			assert.InDelta(t, tc.want.H, got.H, 1, "hue")
			assert.InDelta(t, tc.want.S, got.S, 1, "saturation")
			assert.InDelta(t, tc.want.V, got.V, 1, "value")
		})
	}
}

func TestBand_RedWrapsAroundZero(t *testing.T) {
	t.Parallel()

	red := DefaultBands().Red
	sv := func(h float64) HSV { return HSV{H: h, S: 200, V: 200} }

	for _, h := range []float64{0, 5, 10, 162, 170, 179} {
		assert.True(t, red.Contains(sv(h)), "hue %v should be red", h)
	}
	for _, h := range []float64{11, 30, 90, 161} {
		assert.False(t, red.Contains(sv(h)), "hue %v should not be red", h)
	}

	// a literal negative lower bound would reject nothing above 10
	assert.False(t, red.Contains(HSV{H: 170, S: 10, V: 200}), "saturation still applies")
}

func TestBand_Plain(t *testing.T) {
	t.Parallel()

	yellow := DefaultBands().Yellow
	assert.True(t, yellow.Contains(HSV{H: 10, S: 50, V: 80}), "bounds are inclusive")
	assert.True(t, yellow.Contains(HSV{H: 30, S: 255, V: 255}), "bounds are inclusive")
	assert.False(t, yellow.Contains(HSV{H: 31, S: 100, V: 100}))
	assert.False(t, yellow.Contains(HSV{H: 20, S: 49, V: 100}))
}

func TestBands_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultBands().Validate())

	bands := DefaultBands()
	bands.Green.HueLow = 120
	assert.Error(t, bands.Validate())

	bands = DefaultBands()
	bands.Yellow.SatHigh = 300
	assert.Error(t, bands.Validate())
}
