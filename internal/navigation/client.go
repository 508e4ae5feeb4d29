package navigation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/waypoint-inspection/internal/flight"
	"github.com/roman-kulish/waypoint-inspection/internal/telemetry"
)

const (
	DefaultPollInterval   = 200 * time.Millisecond
	DefaultArrivalTimeout = time.Minute
	DefaultTakeoffSettle  = 2 * time.Second
	DefaultLandSettle     = 5 * time.Second
	DefaultSpeed          = 0.4  // m/s
	DefaultTolerance      = 0.13 // m
)

var (
	// ErrRejected is returned when the flight stack refuses a move command
	ErrRejected = errors.New("navigation rejected")

	// ErrTimeout is returned when the vehicle does not reach its target in time
	ErrTimeout = errors.New("navigation timeout")
)

// Target is a single leg with explicit speed and arrival tolerance
type Target struct {
	X         float64 // X in meters, marker map frame
	Y         float64 // Y in meters, marker map frame
	Z         float64 // Altitude in meters
	Speed     float64 // Transit speed in m/s
	Tolerance float64 // Arrival radius in meters
}

// WithLogger sets the logger for the client
func WithLogger(logger *slog.Logger) func(c *Client) {
	return func(c *Client) {
		c.logger = logger.With(slog.String("component", "navigation"))
	}
}

// WithPollInterval sets how often the target offset is sampled while waiting
func WithPollInterval(d time.Duration) func(c *Client) {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithArrivalTimeout bounds every wait for arrival
func WithArrivalTimeout(d time.Duration) func(c *Client) {
	return func(c *Client) {
		c.arrivalTimeout = d
	}
}

// WithSettle sets the fixed settle times after the takeoff climb and after
// the landing trigger
func WithSettle(takeoff, land time.Duration) func(c *Client) {
	return func(c *Client) {
		c.takeoffSettle = takeoff
		c.landSettle = land
	}
}

// WithSpeed sets the default transit speed
func WithSpeed(speed float64) func(c *Client) {
	return func(c *Client) {
		c.speed = speed
	}
}

// WithTolerance sets the default arrival radius
func WithTolerance(tolerance float64) func(c *Client) {
	return func(c *Client) {
		c.tolerance = tolerance
	}
}

// Client wraps the flight stack behind blocking "go there and wait" calls.
// It keeps no state between calls.
type Client struct {
	services flight.Services

	pollInterval   time.Duration
	arrivalTimeout time.Duration
	takeoffSettle  time.Duration
	landSettle     time.Duration
	speed          float64
	tolerance      float64

	logger *slog.Logger
}

// NewClient creates a new Client instance with a discard logger
func NewClient(services flight.Services, options ...func(c *Client)) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	c := Client{
		services:       services,
		pollInterval:   DefaultPollInterval,
		arrivalTimeout: DefaultArrivalTimeout,
		takeoffSettle:  DefaultTakeoffSettle,
		landSettle:     DefaultLandSettle,
		speed:          DefaultSpeed,
		tolerance:      DefaultTolerance,
		logger:         logger,
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// GoToAndWait flies to (x, y, z) in the marker map frame with the default
// speed and tolerance and blocks until arrival.
func (c *Client) GoToAndWait(ctx context.Context, x, y, z float64) error {
	return c.GoToAndWaitWith(ctx, Target{X: x, Y: y, Z: z, Speed: c.speed, Tolerance: c.tolerance})
}

// GoToAndWaitWith issues the move command and then polls the offset to the
// navigation target until its norm first drops below the tolerance.
//
// The wait ends with ErrTimeout once the arrival timeout passes, and with
// ctx.Err() within one poll interval of ctx being cancelled. In both cases the
// move is left incomplete.
func (c *Client) GoToAndWaitWith(ctx context.Context, t Target) error {
	if t.Tolerance <= 0 {
		return fmt.Errorf("invalid arrival tolerance: %f", t.Tolerance)
	}

	err := c.navigate(ctx, flight.MoveCommand{
		X:     t.X,
		Y:     t.Y,
		Z:     t.Z,
		Yaw:   flight.HoldHeading(),
		Speed: t.Speed,
		Frame: telemetry.FrameMarkerMap,
	})
	if err != nil {
		return err
	}

	return c.waitArrival(ctx, t)
}

func (c *Client) waitArrival(ctx context.Context, t Target) error {
	started := time.Now()
	deadline := started.Add(c.arrivalTimeout)

	var polls int
	lastNorm := -1.0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		polls++
		offset, err := c.services.Telemetry.Position(ctx, telemetry.FrameNavigateTarget)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()

		case err != nil:
			// telemetry gaps are retried until the deadline
			c.logger.Warn(fmt.Sprintf("reading target offset: %s", err.Error()))

		default:
			lastNorm = offset.Norm()
			if lastNorm < t.Tolerance {
				c.logger.Debug("arrived",
					slog.String("target", fmt.Sprintf("(%g, %g, %g)", t.X, t.Y, t.Z)),
					slog.String("offset", humanize.SIWithDigits(lastNorm, 2, "m")),
					slog.Int("polls", polls),
					slog.Duration("elapsed", time.Since(started)))
				return nil
			}
		}

		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: (%g, %g, %g) not reached after %s, last offset %.3f m",
				ErrTimeout, t.X, t.Y, t.Z, c.arrivalTimeout, lastNorm)
		}

		if err = flight.Wait(ctx, c.pollInterval); err != nil {
			return err
		}
	}
}

// Takeoff climbs to altitude relative to the body frame, lets the vehicle
// settle, then re-issues an absolute hold over the position read before the
// climb so drift accumulated during the ascent is taken out.
func (c *Client) Takeoff(ctx context.Context, altitude float64) error {
	pos, err := c.services.Telemetry.Position(ctx, telemetry.FrameMarkerMap)
	if err != nil {
		return fmt.Errorf("reading position before takeoff: %w", err)
	}

	c.logger.Info("taking off",
		slog.Float64("altitude", altitude),
		slog.String("from", fmt.Sprintf("(%g, %g)", pos.X, pos.Y)))

	err = c.navigate(ctx, flight.MoveCommand{
		Z:       altitude,
		Yaw:     flight.HoldHeading(),
		Speed:   c.speed,
		Frame:   telemetry.FrameBody,
		AutoArm: true,
	})
	if err != nil {
		return fmt.Errorf("climbing: %w", err)
	}

	if err = flight.Wait(ctx, c.takeoffSettle); err != nil {
		return err
	}

	err = c.navigate(ctx, flight.MoveCommand{
		X:     pos.X,
		Y:     pos.Y,
		Z:     altitude,
		Yaw:   flight.HoldHeading(),
		Speed: c.speed,
		Frame: telemetry.FrameMarkerMap,
	})
	if err != nil {
		return fmt.Errorf("holding after climb: %w", err)
	}

	return nil
}

// Land triggers landing, waits the fixed settle time and optionally disarms.
// Touchdown itself is not confirmed.
func (c *Client) Land(ctx context.Context, disarm bool) error {
	c.logger.Info("landing", slog.Bool("disarm", disarm))

	if err := c.services.Lander.Land(ctx); err != nil {
		return fmt.Errorf("triggering landing: %w", err)
	}

	if err := flight.Wait(ctx, c.landSettle); err != nil {
		return err
	}

	if !disarm {
		return nil
	}

	if err := c.services.Arming.SetArmed(ctx, false); err != nil {
		return fmt.Errorf("disarming: %w", err)
	}

	return nil
}

func (c *Client) navigate(ctx context.Context, cmd flight.MoveCommand) error {
	accepted, err := c.services.Navigator.Navigate(ctx, cmd)
	if err != nil {
		return fmt.Errorf("sending move command: %w", err)
	}
	if !accepted {
		return fmt.Errorf("%w: move to (%g, %g, %g) in %s", ErrRejected, cmd.X, cmd.Y, cmd.Z, cmd.Frame)
	}

	return nil
}
