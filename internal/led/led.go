package led

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
)

var (
	Off    = color.RGBA{A: 0xff}
	Purple = color.RGBA{R: 128, B: 128, A: 0xff} // site needs a second look
	Red    = color.RGBA{R: 255, A: 0xff}         // hazard confirmed
)

// Effect drives the vehicle's signal light. Setting Off clears it.
type Effect interface {
	SetEffect(ctx context.Context, c color.RGBA) error
}

// LogEffect only logs the requested colors, for vehicles without a light strip
type LogEffect struct {
	logger *slog.Logger
}

func NewLogEffect(logger *slog.Logger) *LogEffect {
	return &LogEffect{logger: logger.With(slog.String("component", "led"))}
}

func (e *LogEffect) SetEffect(ctx context.Context, c color.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.logger.Info("led effect", slog.String("color", Hex(c)))
	return nil
}

// Hex formats c as #rrggbb
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
