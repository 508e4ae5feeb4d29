package mission

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/waypoint-inspection/internal/flight"
	"github.com/roman-kulish/waypoint-inspection/internal/led"
	"github.com/roman-kulish/waypoint-inspection/internal/vision"
)

var (
	// ErrAborted wraps the navigation failure that ended a mission early
	ErrAborted = errors.New("mission aborted")

	// ErrActuatorFailure marks a light pattern that could not be set. It is
	// logged and never ends the mission.
	ErrActuatorFailure = errors.New("actuator failure")

	// ErrAlreadyRun is returned by Run on a sequencer that has already flown
	ErrAlreadyRun = errors.New("mission already run")
)

// Navigator flies the vehicle
type Navigator interface {
	Takeoff(ctx context.Context, altitude float64) error
	GoToAndWait(ctx context.Context, x, y, z float64) error
	Land(ctx context.Context, disarm bool) error
}

// ColorSampler classifies the marker under the vehicle by color
type ColorSampler interface {
	Classify(ctx context.Context) (vision.ColorResult, error)
}

// SymbolSampler decodes the symbol under the vehicle
type SymbolSampler interface {
	Classify(ctx context.Context) (vision.SymbolResult, error)
}

// Recorder persists committed site outcomes
type Recorder interface {
	RecordSite(ctx context.Context, outcome SiteOutcome) error
}

// Services are the collaborators a Sequencer drives
type Services struct {
	Navigation Navigator
	Color      ColorSampler
	Symbol     SymbolSampler
	Effect     led.Effect
}

// Result is the state of the mission when Run returned
type Result struct {
	State   State        // Last state reached
	Ledger  *Ledger      // Snapshot of the committed outcomes
	Revisit RevisitQueue // Sites flagged by the first pass, nil if it did not finish
}

// WithLogger sets the logger for the sequencer
func WithLogger(logger *slog.Logger) func(s *Sequencer) {
	return func(s *Sequencer) {
		s.logger = logger.With(slog.String("component", "mission"))
	}
}

// WithRecorder persists every committed site. Recorder failures are logged only.
func WithRecorder(recorder Recorder) func(s *Sequencer) {
	return func(s *Sequencer) {
		s.recorder = recorder
	}
}

// WithObserver is called on every state transition
func WithObserver(observer func(from, to State)) func(s *Sequencer) {
	return func(s *Sequencer) {
		s.observer = observer
	}
}

// Sequencer runs the two pass inspection mission. It owns the ledger and the
// revisit queue and executes strictly sequentially; it is single use.
type Sequencer struct {
	config   Config
	services Services

	state    atomic.Int32
	airborne bool
	ledger   *Ledger
	revisit  RevisitQueue

	recorder Recorder
	observer func(from, to State)
	logger   *slog.Logger
}

// NewSequencer validates config and creates a new Sequencer instance with a
// discard logger
func NewSequencer(config Config, services Services, options ...func(s *Sequencer)) (*Sequencer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if services.Navigation == nil || services.Color == nil || services.Symbol == nil || services.Effect == nil {
		return nil, errors.New("mission: navigation, color, symbol and effect services are required")
	}

	s := Sequencer{
		config:   config,
		services: services,
		ledger:   NewLedger(len(config.Waypoints)),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}
	s.config.Waypoints = append([]Waypoint(nil), config.Waypoints...)

	for _, option := range options {
		option(&s)
	}

	return &s, nil
}

// State returns the current mission state. It is safe to call from any goroutine.
func (s *Sequencer) State() State {
	return State(s.state.Load())
}

// Run flies the whole mission.
//
// A navigation failure aborts the mission: the vehicle lands where it is, the
// remaining phases are skipped and the error wraps ErrAborted. When ctx is
// cancelled Run stops at the next suspension point and returns ctx.Err()
// without issuing further commands. The result always carries the committed
// part of the ledger.
func (s *Sequencer) Run(ctx context.Context) (*Result, error) {
	if s.State() != StateGrounded {
		return nil, ErrAlreadyRun
	}

	err := s.fly(ctx)
	switch {
	case err == nil:
		return s.result(), nil

	case ctx.Err() != nil:
		s.logger.Warn("mission interrupted", slog.String("state", s.State().String()))
		return s.result(), err

	default:
		s.logger.Error(fmt.Sprintf("aborting mission: %s", err.Error()), slog.String("state", s.State().String()))
		err = fmt.Errorf("%w: %w", ErrAborted, err)

		if landErr := s.abort(ctx); landErr != nil {
			err = errors.Join(err, landErr)
		}
		return s.result(), err
	}
}

func (s *Sequencer) fly(ctx context.Context) error {
	c := s.config

	s.transition(StateAscending)
	if err := s.takeoff(ctx); err != nil {
		return err
	}

	s.logger.Info("stabilizing after takeoff", slog.Duration("for", c.Timing.TakeoffStabilize))
	if err := flight.Wait(ctx, c.Timing.TakeoffStabilize); err != nil {
		return err
	}

	s.transition(StatePhase1Sweeping)
	for i, wp := range c.Waypoints {
		if err := s.inspectSite(ctx, i, wp); err != nil {
			return err
		}
	}

	s.revisit = s.ledger.RevisitQueue()
	s.logger.Info("first pass complete",
		slog.Int("sites", s.ledger.Len()),
		slog.Int("flagged", len(s.revisit)))

	s.transition(StateReturningHome1)
	if err := s.returnHome(ctx, 0); err != nil {
		return err
	}

	s.transition(StateGroundedInterim)
	if len(s.revisit) == 0 {
		s.logger.Info("no sites flagged, skipping second pass")
		s.transition(StateLanded)
		return nil
	}

	if err := s.dwell(ctx); err != nil {
		return err
	}

	s.transition(StateAscending2)
	if err := s.takeoff(ctx); err != nil {
		return err
	}

	s.transition(StatePhase2Sweeping)
	for _, entry := range s.revisit {
		if err := s.revisitSite(ctx, entry); err != nil {
			return err
		}
	}

	s.transition(StateReturningHome2)
	if err := s.returnHome(ctx, c.Timing.FinalSettle); err != nil {
		return err
	}

	s.transition(StateLanded)
	return nil
}

// inspectSite is the first pass sub-sequence. The outcome is committed to
// the ledger only after the climb back to cruise altitude.
func (s *Sequencer) inspectSite(ctx context.Context, index int, wp Waypoint) error {
	c := s.config
	logger := s.logger.With(slog.String("site", humanize.Ordinal(index+1)), slog.String("at", wp.String()))

	logger.Info("inspecting site")

	s.step(logger, StepNavigating)
	if err := s.goTo(ctx, wp, c.Altitudes.Cruise, c.Timing.CruiseSettle); err != nil {
		return err
	}

	s.step(logger, StepDescending)
	if err := s.goTo(ctx, wp, c.Altitudes.Inspection, c.Timing.InspectionSettle); err != nil {
		return err
	}

	s.step(logger, StepClassifying)
	outcome := SiteOutcome{Index: index, Waypoint: wp}

	result, err := s.services.Color.Classify(ctx)
	switch {
	case err == nil:
		outcome.Color = result.Color

	case ctx.Err() != nil:
		return ctx.Err()

	case errors.Is(err, vision.ErrClassificationAmbiguous):
		outcome.Ambiguous = true
		outcome.Color = c.Policy.ambiguousColor()
		logger.Warn(fmt.Sprintf("color classification is ambiguous: %s", err.Error()),
			slog.String("fallback", outcome.Color.String()))

	default:
		outcome.Color = vision.ColorUnknown
		logger.Warn(fmt.Sprintf("color classification failed: %s", err.Error()))
	}

	s.step(logger, StepSignalling)
	if outcome.FlaggedForRevisit() {
		if err = s.signal(ctx, led.Purple); err != nil {
			return err
		}
	}
	if outcome.Color == vision.ColorGreen {
		outcome.Diagnosis = DiagnosisHealthy
	}

	s.step(logger, StepClimbing)
	if err = s.goTo(ctx, wp, c.Altitudes.Cruise, c.Timing.ClimbSettle); err != nil {
		return err
	}

	if err = s.ledger.add(outcome); err != nil {
		return err
	}
	s.step(logger, StepCommitted)
	s.record(ctx, outcome)

	logger.Info("site classified",
		slog.String("color", outcome.Color.String()),
		slog.String("marker", outcome.Marker()),
		slog.Bool("ambiguous", outcome.Ambiguous),
		slog.Bool("revisit", outcome.FlaggedForRevisit()))

	return nil
}

// revisitSite is the second pass sub-sequence for one flagged site
func (s *Sequencer) revisitSite(ctx context.Context, entry RevisitEntry) error {
	c := s.config
	logger := s.logger.With(slog.String("site", humanize.Ordinal(entry.Index+1)), slog.String("at", entry.Waypoint.String()))

	outcome, ok := s.ledger.At(entry.Index)
	if !ok {
		return fmt.Errorf("revisit of unrecorded site %d", entry.Index)
	}

	logger.Info("revisiting site")

	s.step(logger, StepNavigating)
	if err := s.goTo(ctx, entry.Waypoint, c.Altitudes.Cruise, c.Timing.RevisitCruiseSettle); err != nil {
		return err
	}

	s.step(logger, StepDescending)
	if err := s.goTo(ctx, entry.Waypoint, c.Altitudes.RevisitInspection, c.Timing.RevisitInspectionSettle); err != nil {
		return err
	}

	s.step(logger, StepClassifying)
	result, err := s.services.Symbol.Classify(ctx)
	switch {
	case err == nil:
		outcome.Symbol = result.Payload
		outcome.SymbolSeen = true
		outcome.Diagnosis = c.Policy.Diagnose(result.Payload)

	case ctx.Err() != nil:
		return ctx.Err()

	case errors.Is(err, vision.ErrNoSymbolDetected):
		outcome.Symbol = ""
		outcome.SymbolSeen = false
		outcome.Diagnosis = DiagnosisNonHazard
		logger.Warn("no symbol detected, recording non-hazard")

	default:
		outcome.Diagnosis = DiagnosisUnknown
		logger.Warn(fmt.Sprintf("symbol classification failed: %s", err.Error()))
	}

	s.step(logger, StepSignalling)
	if outcome.Diagnosis == DiagnosisHazard {
		if err = s.signal(ctx, led.Red); err != nil {
			return err
		}
	}

	s.step(logger, StepClimbing)
	if err = s.goTo(ctx, entry.Waypoint, c.Altitudes.Cruise, c.Timing.ClimbSettle); err != nil {
		return err
	}

	outcome.Revisited = true
	if err = s.ledger.update(outcome); err != nil {
		return err
	}
	s.step(logger, StepCommitted)
	s.record(ctx, outcome)

	logger.Info("site diagnosed",
		slog.String("diagnosis", outcome.Diagnosis.String()),
		slog.String("symbol", outcome.Symbol),
		slog.Bool("symbolSeen", outcome.SymbolSeen))

	return nil
}

func (s *Sequencer) takeoff(ctx context.Context) error {
	if err := s.services.Navigation.Takeoff(ctx, s.config.Altitudes.Cruise); err != nil {
		return fmt.Errorf("takeoff: %w", err)
	}
	s.airborne = true
	return nil
}

// returnHome flies over home at cruise, then at approach height, and lands
func (s *Sequencer) returnHome(ctx context.Context, finalSettle time.Duration) error {
	c := s.config

	s.logger.Info("returning home", slog.String("home", c.Home.String()))

	if err := s.goTo(ctx, c.Home, c.Altitudes.Cruise, c.Timing.HomeSettle); err != nil {
		return err
	}
	if err := s.goTo(ctx, c.Home, c.Altitudes.HomeApproach, finalSettle); err != nil {
		return err
	}

	if err := s.services.Navigation.Land(ctx, true); err != nil {
		return fmt.Errorf("landing: %w", err)
	}
	s.airborne = false
	return nil
}

// dwell waits out the interphase window, narrating the time left
func (s *Sequencer) dwell(ctx context.Context) error {
	remaining := s.config.Timing.InterphaseDwell
	notice := s.config.Timing.DwellNotice

	for remaining > 0 {
		now := time.Now()
		s.logger.Info("waiting before second pass",
			slog.String("remaining", humanize.RelTime(now, now.Add(remaining), "left", "left")))

		step := remaining
		if notice > 0 {
			step = min(remaining, notice)
		}
		if err := flight.Wait(ctx, step); err != nil {
			return err
		}
		remaining -= step
	}

	return nil
}

func (s *Sequencer) goTo(ctx context.Context, wp Waypoint, altitude float64, settle time.Duration) error {
	if err := s.services.Navigation.GoToAndWait(ctx, wp.X, wp.Y, altitude); err != nil {
		return fmt.Errorf("flying to %s at %gm: %w", wp, altitude, err)
	}
	return flight.Wait(ctx, settle)
}

// signal shows a light pattern for the actuator hold time. Actuator errors
// are logged; only cancellation is returned.
func (s *Sequencer) signal(ctx context.Context, c color.RGBA) error {
	if err := s.services.Effect.SetEffect(ctx, c); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn(fmt.Errorf("%w: setting %s: %w", ErrActuatorFailure, led.Hex(c), err).Error())
	}

	if err := flight.Wait(ctx, s.config.Timing.ActuatorHold); err != nil {
		return err
	}

	if err := s.services.Effect.SetEffect(ctx, led.Off); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn(fmt.Errorf("%w: clearing: %w", ErrActuatorFailure, err).Error())
	}

	return nil
}

// abort lands the vehicle where it is after a navigation failure
func (s *Sequencer) abort(ctx context.Context) error {
	s.transition(StateAborted)

	if !s.airborne {
		return nil
	}

	if err := s.services.Navigation.Land(ctx, true); err != nil {
		return fmt.Errorf("emergency landing: %w", err)
	}
	s.airborne = false
	return nil
}

func (s *Sequencer) record(ctx context.Context, outcome SiteOutcome) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordSite(ctx, outcome); err != nil {
		s.logger.Warn(fmt.Sprintf("recording site: %s", err.Error()), slog.Int("index", outcome.Index))
	}
}

func (s *Sequencer) transition(to State) {
	from := State(s.state.Swap(int32(to)))

	s.logger.Info("mission state", slog.String("from", from.String()), slog.String("to", to.String()))
	if s.observer != nil {
		s.observer(from, to)
	}
}

func (s *Sequencer) step(logger *slog.Logger, step SiteStep) {
	logger.Debug("site step", slog.String("step", step.String()))
}

func (s *Sequencer) result() *Result {
	return &Result{
		State:   s.State(),
		Ledger:  s.ledger.clone(),
		Revisit: append(RevisitQueue(nil), s.revisit...),
	}
}
