package telemetry

import "context"

// Provider reads the current vehicle position in the requested frame
type Provider interface {
	Position(ctx context.Context, frame Frame) (Position, error)
}
