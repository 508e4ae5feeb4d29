package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

const (
	ColorUnknown Color = iota
	ColorRed
	ColorYellow
	ColorGreen
)

var (
	// ErrClassificationAmbiguous is returned when no color band wins a
	// sampling round, or when every round of a classification was ambiguous
	ErrClassificationAmbiguous = errors.New("classification ambiguous")

	// ErrNoSymbolDetected is returned when no symbol was decoded in any round
	ErrNoSymbolDetected = errors.New("no symbol detected")
)

// Color is the signal color of a ground marker
type Color int

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorYellow:
		return "yellow"
	case ColorGreen:
		return "green"
	default:
		return "unknown"
	}
}

// ParseColor is the inverse of Color.String
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return ColorRed, nil
	case "yellow":
		return ColorYellow, nil
	case "green":
		return ColorGreen, nil
	case "unknown", "":
		return ColorUnknown, nil
	default:
		return ColorUnknown, fmt.Errorf("unknown color '%s'", s)
	}
}

// Camera returns the most recent frame of the onboard camera
type Camera interface {
	LatestFrame(ctx context.Context) (image.Image, error)
}

// SymbolDecoder extracts the payloads of all 2D symbols visible in a frame.
// An empty result is not an error.
type SymbolDecoder interface {
	Decode(ctx context.Context, img *image.Gray) ([]string, error)
}

// DebugSink receives annotated debug frames
type DebugSink interface {
	Publish(ctx context.Context, name string, img image.Image) error
}
