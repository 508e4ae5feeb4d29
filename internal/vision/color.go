package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"time"

	"github.com/roman-kulish/waypoint-inspection/internal/flight"
)

const (
	DefaultColorRounds   = 3
	DefaultColorInterval = 500 * time.Millisecond

	colorSampleWidth  = 160
	colorSampleHeight = 120
)

// Counts holds the number of band pixels in the central third of a frame
type Counts struct {
	Red    int
	Yellow int
	Green  int
}

// Decide returns the color whose count is the unique non-zero maximum. All
// zero counts, or a tie at the top, make the round ambiguous.
func (c Counts) Decide() (Color, error) {
	best, bestCount, tie := ColorUnknown, 0, false
	for _, candidate := range []struct {
		color Color
		count int
	}{
		{ColorRed, c.Red},
		{ColorYellow, c.Yellow},
		{ColorGreen, c.Green},
	} {
		switch {
		case candidate.count > bestCount:
			best, bestCount, tie = candidate.color, candidate.count, false
		case candidate.count == bestCount && candidate.count > 0:
			tie = true
		}
	}

	if bestCount == 0 || tie {
		return ColorUnknown, fmt.Errorf("%w: red=%d yellow=%d green=%d", ErrClassificationAmbiguous, c.Red, c.Yellow, c.Green)
	}
	return best, nil
}

// ColorRound is the outcome of one sampling round
type ColorRound struct {
	Color     Color
	Counts    Counts
	Ambiguous bool
}

// ColorResult is the majority vote over all rounds
type ColorResult struct {
	Color  Color
	Rounds []ColorRound
}

// WithColorBands overrides the default threshold bands
func WithColorBands(bands Bands) func(cc *ColorClassifier) {
	return func(cc *ColorClassifier) {
		cc.bands = bands
	}
}

// WithColorSampling sets the number of sampling rounds and the pause between them
func WithColorSampling(rounds int, interval time.Duration) func(cc *ColorClassifier) {
	return func(cc *ColorClassifier) {
		cc.rounds = rounds
		cc.interval = interval
	}
}

// WithColorDebug publishes a mask mosaic of every round to sink
func WithColorDebug(annotator *Annotator, sink DebugSink) func(cc *ColorClassifier) {
	return func(cc *ColorClassifier) {
		cc.annotator = annotator
		cc.debug = sink
	}
}

// WithColorLogger sets the logger for the classifier
func WithColorLogger(logger *slog.Logger) func(cc *ColorClassifier) {
	return func(cc *ColorClassifier) {
		cc.logger = logger.With(slog.String("component", "color"))
	}
}

// ColorClassifier samples the camera several times and votes on the marker color
type ColorClassifier struct {
	camera   Camera
	bands    Bands
	rounds   int
	interval time.Duration

	annotator *Annotator
	debug     DebugSink

	logger *slog.Logger
}

// NewColorClassifier creates a new ColorClassifier instance with a discard logger
func NewColorClassifier(camera Camera, options ...func(cc *ColorClassifier)) *ColorClassifier {
	cc := ColorClassifier{
		camera:   camera,
		bands:    DefaultBands(),
		rounds:   DefaultColorRounds,
		interval: DefaultColorInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&cc)
	}

	return &cc
}

// Classify runs the sampling rounds and returns the majority color. Ambiguous
// rounds do not vote; if no round produced a color the result is
// ErrClassificationAmbiguous.
func (cc *ColorClassifier) Classify(ctx context.Context) (ColorResult, error) {
	var result ColorResult
	var votes []Color

	for i := 0; i < cc.rounds; i++ {
		if i > 0 {
			if err := flight.Wait(ctx, cc.interval); err != nil {
				return result, err
			}
		}

		frame, err := cc.camera.LatestFrame(ctx)
		if err != nil {
			return result, fmt.Errorf("capturing frame: %w", err)
		}

		m := cc.measure(frame)
		c, err := m.counts.Decide()

		round := ColorRound{Color: c, Counts: m.counts, Ambiguous: err != nil}
		result.Rounds = append(result.Rounds, round)
		if !round.Ambiguous {
			votes = append(votes, c)
		}

		cc.logger.Debug("color round",
			slog.Int("round", i+1),
			slog.String("color", c.String()),
			slog.Int("red", m.counts.Red),
			slog.Int("yellow", m.counts.Yellow),
			slog.Int("green", m.counts.Green))

		cc.publish(ctx, i+1, m, c)
	}

	winner, ok := MostFrequent(votes)
	if !ok {
		return result, fmt.Errorf("%w: no decisive round out of %d", ErrClassificationAmbiguous, cc.rounds)
	}

	result.Color = winner
	return result, nil
}

// ClassifyFrame decides a single frame
func (cc *ColorClassifier) ClassifyFrame(frame image.Image) (Color, Counts, error) {
	m := cc.measure(frame)
	c, err := m.counts.Decide()
	return c, m.counts, err
}

type masks struct {
	red    *image.Gray
	yellow *image.Gray
	green  *image.Gray
	counts Counts
}

// measure downsamples the frame, thresholds it into the three band masks and
// counts mask pixels in the central third
func (cc *ColorClassifier) measure(frame image.Image) masks {
	small := Downsample(frame, colorSampleWidth, colorSampleHeight)
	bounds := small.Bounds()
	center := centralThird(bounds)

	m := masks{
		red:    image.NewGray(bounds),
		yellow: image.NewGray(bounds),
		green:  image.NewGray(bounds),
	}

	on := color.Gray{Y: 0xff}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			p := ToHSV(small.RGBAAt(x, y))
			inCenter := image.Pt(x, y).In(center)

			if cc.bands.Red.Contains(p) {
				m.red.SetGray(x, y, on)
				if inCenter {
					m.counts.Red++
				}
			}
			if cc.bands.Yellow.Contains(p) {
				m.yellow.SetGray(x, y, on)
				if inCenter {
					m.counts.Yellow++
				}
			}
			if cc.bands.Green.Contains(p) {
				m.green.SetGray(x, y, on)
				if inCenter {
					m.counts.Green++
				}
			}
		}
	}

	return m
}

func (cc *ColorClassifier) publish(ctx context.Context, round int, m masks, c Color) {
	if cc.debug == nil || cc.annotator == nil {
		return
	}

	img, cells := cc.annotator.Mosaic([]image.Image{m.green, m.red, m.yellow, nil}, 2)
	if err := cc.annotator.Caption(img, cells[3], "Result:", c.String()); err != nil {
		cc.logger.Warn(err.Error())
		return
	}

	if err := cc.debug.Publish(ctx, fmt.Sprintf("color_round%d", round), img); err != nil && !errors.Is(err, context.Canceled) {
		cc.logger.Warn(fmt.Sprintf("publishing debug frame: %s", err.Error()))
	}
}
