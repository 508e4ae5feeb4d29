package vision

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	hueRange = 180.0 // 8-bit hue covers [0, 180)
	maxLevel = 255.0
)

// HSV is a color in 8-bit hue/saturation/value units: H in [0, 180),
// S and V in [0, 255]
type HSV struct {
	H float64
	S float64
	V float64
}

// ToHSV converts c to 8-bit HSV units
func ToHSV(c color.Color) HSV {
	cf, _ := colorful.MakeColor(c) // fully transparent pixels come back black
	h, s, v := cf.Hsv()

	hue := math.Round(h / 2)
	if hue >= hueRange {
		hue -= hueRange
	}

	return HSV{
		H: hue,
		S: math.Round(s * maxLevel),
		V: math.Round(v * maxLevel),
	}
}

// Band is an inclusive HSV threshold range. HueLow may be below zero (or
// HueLow above HueHigh after wrapping), in which case the band wraps around
// hue 0 instead of being clipped.
type Band struct {
	HueLow  float64 `yaml:"hueLow" json:"hueLow"`
	HueHigh float64 `yaml:"hueHigh" json:"hueHigh"`
	SatLow  float64 `yaml:"satLow" json:"satLow"`
	SatHigh float64 `yaml:"satHigh" json:"satHigh"`
	ValLow  float64 `yaml:"valLow" json:"valLow"`
	ValHigh float64 `yaml:"valHigh" json:"valHigh"`
}

// Contains reports whether p falls inside the band
func (b Band) Contains(p HSV) bool {
	if p.S < b.SatLow || p.S > b.SatHigh || p.V < b.ValLow || p.V > b.ValHigh {
		return false
	}

	if b.HueHigh-b.HueLow >= hueRange {
		return true
	}

	lo, hi := wrapHue(b.HueLow), wrapHue(b.HueHigh)
	if lo <= hi {
		return p.H >= lo && p.H <= hi
	}
	return p.H >= lo || p.H <= hi
}

func (b Band) Validate() error {
	if b.HueLow > b.HueHigh {
		return fmt.Errorf("hue low %.0f is above hue high %.0f", b.HueLow, b.HueHigh)
	}
	if b.SatLow > b.SatHigh || b.SatLow < 0 || b.SatHigh > maxLevel {
		return fmt.Errorf("invalid saturation range [%.0f, %.0f]", b.SatLow, b.SatHigh)
	}
	if b.ValLow > b.ValHigh || b.ValLow < 0 || b.ValHigh > maxLevel {
		return fmt.Errorf("invalid value range [%.0f, %.0f]", b.ValLow, b.ValHigh)
	}
	return nil
}

func wrapHue(h float64) float64 {
	return math.Mod(math.Mod(h, hueRange)+hueRange, hueRange)
}

// Bands holds the threshold band of every signal color
type Bands struct {
	Red    Band `yaml:"red" json:"red"`
	Yellow Band `yaml:"yellow" json:"yellow"`
	Green  Band `yaml:"green" json:"green"`
}

// DefaultBands returns the thresholds tuned for the field markers. Red and
// yellow share hue 10, so a pixel at exactly that hue counts for both and a
// frame of it ties and is ambiguous.
func DefaultBands() Bands {
	return Bands{
		Red:    Band{HueLow: -18, HueHigh: 10, SatLow: 80, SatHigh: 255, ValLow: 80, ValHigh: 255},
		Yellow: Band{HueLow: 10, HueHigh: 30, SatLow: 50, SatHigh: 255, ValLow: 80, ValHigh: 255},
		Green:  Band{HueLow: 75, HueHigh: 100, SatLow: 20, SatHigh: 50, ValLow: 40, ValHigh: 60},
	}
}

func (b Bands) Validate() error {
	for _, band := range []struct {
		name string
		band Band
	}{
		{"red", b.Red},
		{"yellow", b.Yellow},
		{"green", b.Green},
	} {
		if err := band.band.Validate(); err != nil {
			return fmt.Errorf("%s band: %w", band.name, err)
		}
	}
	return nil
}
