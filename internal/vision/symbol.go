package vision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roman-kulish/waypoint-inspection/internal/flight"
)

const (
	DefaultSymbolRounds   = 3
	DefaultSymbolInterval = time.Second
)

// SymbolResult is the most frequent payload over all detections
type SymbolResult struct {
	Payload    string
	Detections []string // non-empty payloads of every round, in decode order
}

// WithSymbolSampling sets the number of sampling rounds and the pause between them
func WithSymbolSampling(rounds int, interval time.Duration) func(sc *SymbolClassifier) {
	return func(sc *SymbolClassifier) {
		sc.rounds = rounds
		sc.interval = interval
	}
}

// WithSymbolLogger sets the logger for the classifier
func WithSymbolLogger(logger *slog.Logger) func(sc *SymbolClassifier) {
	return func(sc *SymbolClassifier) {
		sc.logger = logger.With(slog.String("component", "symbol"))
	}
}

// SymbolClassifier decodes 2D symbols over several frames
type SymbolClassifier struct {
	camera   Camera
	decoder  SymbolDecoder
	rounds   int
	interval time.Duration

	logger *slog.Logger
}

// NewSymbolClassifier creates a new SymbolClassifier instance with a discard logger
func NewSymbolClassifier(camera Camera, decoder SymbolDecoder, options ...func(sc *SymbolClassifier)) *SymbolClassifier {
	sc := SymbolClassifier{
		camera:   camera,
		decoder:  decoder,
		rounds:   DefaultSymbolRounds,
		interval: DefaultSymbolInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&sc)
	}

	return &sc
}

// Classify decodes one frame per round and votes over the flattened list of
// detections, so a round that saw two symbols casts two votes. Empty
// payloads are dropped. With nothing decoded at all the result is
// ErrNoSymbolDetected.
func (sc *SymbolClassifier) Classify(ctx context.Context) (SymbolResult, error) {
	var result SymbolResult

	for i := 0; i < sc.rounds; i++ {
		if i > 0 {
			if err := flight.Wait(ctx, sc.interval); err != nil {
				return result, err
			}
		}

		frame, err := sc.camera.LatestFrame(ctx)
		if err != nil {
			return result, fmt.Errorf("capturing frame: %w", err)
		}

		payloads, err := sc.decoder.Decode(ctx, Grayscale(frame))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			sc.logger.Warn(fmt.Sprintf("decoding round %d: %s", i+1, err.Error()))
			continue
		}

		for _, payload := range payloads {
			if payload != "" {
				result.Detections = append(result.Detections, payload)
			}
		}

		sc.logger.Debug("symbol round", slog.Int("round", i+1), slog.Any("payloads", payloads))
	}

	winner, ok := MostFrequent(result.Detections)
	if !ok {
		return result, fmt.Errorf("%w in %d rounds", ErrNoSymbolDetected, sc.rounds)
	}

	result.Payload = winner
	return result, nil
}
