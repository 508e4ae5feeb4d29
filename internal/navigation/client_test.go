package navigation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/waypoint-inspection/internal/flight"
	"github.com/roman-kulish/waypoint-inspection/internal/telemetry"
)

// fakeFlight replays a scripted sequence of target offsets, repeating the last
// one once the script runs out.
type fakeFlight struct {
	mu sync.Mutex

	offsets   []float64
	offsetErr map[int]error
	polls     int
	onPoll    func(poll int)

	marker   telemetry.Position
	reject   bool
	commands []flight.MoveCommand

	landed   int
	disarmed int
}

func (f *fakeFlight) Position(_ context.Context, frame telemetry.Frame) (telemetry.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if frame != telemetry.FrameNavigateTarget {
		return f.marker, nil
	}

	f.polls++
	if f.onPoll != nil {
		f.onPoll(f.polls)
	}
	if err, ok := f.offsetErr[f.polls]; ok {
		return telemetry.Position{}, err
	}

	i := min(f.polls-1, len(f.offsets)-1)
	return telemetry.Position{Frame: frame, X: f.offsets[i]}, nil
}

func (f *fakeFlight) Navigate(_ context.Context, cmd flight.MoveCommand) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.commands = append(f.commands, cmd)
	return !f.reject, nil
}

func (f *fakeFlight) SetArmed(_ context.Context, armed bool) error {
	if !armed {
		f.disarmed++
	}
	return nil
}

func (f *fakeFlight) Land(context.Context) error {
	f.landed++
	return nil
}

func (f *fakeFlight) services() flight.Services {
	return flight.Services{Telemetry: f, Navigator: f, Arming: f, Lander: f}
}

func newTestClient(f *fakeFlight, options ...func(*Client)) *Client {
	opts := []func(*Client){
		WithPollInterval(time.Millisecond),
		WithArrivalTimeout(time.Second),
		WithSettle(0, 0),
	}
	return NewClient(f.services(), append(opts, options...)...)
}

func TestGoToAndWait_StopsOnFirstSampleBelowTolerance(t *testing.T) {
	t.Parallel()

	f := &fakeFlight{offsets: []float64{1.0, 0.5, 0.2, 0.05, 0.3, 0.01}}
	c := newTestClient(f)

	require.NoError(t, c.GoToAndWait(context.Background(), 0.72, 3.94, 1.2))

	assert.Equal(t, 4, f.polls)
	require.Len(t, f.commands, 1)
	assert.Equal(t, telemetry.FrameMarkerMap, f.commands[0].Frame)
	assert.InDelta(t, 0.72, f.commands[0].X, 1e-9)
	assert.InDelta(t, 3.94, f.commands[0].Y, 1e-9)
	assert.InDelta(t, 1.2, f.commands[0].Z, 1e-9)
	assert.InDelta(t, DefaultSpeed, f.commands[0].Speed, 1e-9)
}

func TestGoToAndWait_OscillatingTelemetry(t *testing.T) {
	t.Parallel()

	// 0.13 equals the tolerance and must not count as arrival, neither does
	// a near miss that rises again.
	f := &fakeFlight{offsets: []float64{0.5, 0.14, 0.13, 0.2, 0.131, 0.12, 0.5}}
	c := newTestClient(f)

	err := c.GoToAndWaitWith(context.Background(), Target{X: 1, Y: 1, Z: 1, Speed: 0.4, Tolerance: 0.13})
	require.NoError(t, err)
	assert.Equal(t, 6, f.polls)
}

func TestGoToAndWait_Rejected(t *testing.T) {
	t.Parallel()

	f := &fakeFlight{offsets: []float64{0}, reject: true}
	c := newTestClient(f)

	err := c.GoToAndWait(context.Background(), 1, 1, 1)
	require.ErrorIs(t, err, ErrRejected)
	assert.Zero(t, f.polls, "a rejected command must not be waited for")
}

func TestGoToAndWait_Timeout(t *testing.T) {
	t.Parallel()

	f := &fakeFlight{offsets: []float64{2.5}}
	c := newTestClient(f, WithArrivalTimeout(20*time.Millisecond))

	err := c.GoToAndWait(context.Background(), 3.6, 0.28, 1.2)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Greater(t, f.polls, 1)
}

func TestGoToAndWait_RetriesTelemetryErrors(t *testing.T) {
	t.Parallel()

	f := &fakeFlight{
		offsets:   []float64{1, 1, 0.01},
		offsetErr: map[int]error{2: errors.New("no telemetry")},
	}
	c := newTestClient(f)

	require.NoError(t, c.GoToAndWait(context.Background(), 0, 0, 1))
	assert.Equal(t, 3, f.polls)
}

func TestGoToAndWait_Cancelled(t *testing.T) {
	t.Parallel()

	t.Run("cancelled between polls", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := &fakeFlight{offsets: []float64{1}}
		f.onPoll = func(poll int) {
			if poll == 2 {
				cancel()
			}
		}
		c := newTestClient(f)

		err := c.GoToAndWait(ctx, 1, 1, 1)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, f.polls)
	})

	t.Run("returns within one poll interval", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := &fakeFlight{offsets: []float64{1}}
		c := newTestClient(f, WithPollInterval(10*time.Second), WithArrivalTimeout(time.Minute))

		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		started := time.Now()
		err := c.GoToAndWait(ctx, 1, 1, 1)
		require.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(started), 5*time.Second)
		assert.Equal(t, 1, f.polls)
	})
}

func TestTakeoff(t *testing.T) {
	t.Parallel()

	f := &fakeFlight{marker: telemetry.Position{Frame: telemetry.FrameMarkerMap, X: 0.1, Y: -0.2, Z: 0}}
	c := newTestClient(f)

	require.NoError(t, c.Takeoff(context.Background(), 1.2))
	require.Len(t, f.commands, 2)

	climb, hold := f.commands[0], f.commands[1]
	assert.Equal(t, telemetry.FrameBody, climb.Frame)
	assert.True(t, climb.AutoArm)
	assert.InDelta(t, 1.2, climb.Z, 1e-9)

	assert.Equal(t, telemetry.FrameMarkerMap, hold.Frame)
	assert.InDelta(t, 0.1, hold.X, 1e-9)
	assert.InDelta(t, -0.2, hold.Y, 1e-9)
	assert.InDelta(t, 1.2, hold.Z, 1e-9)
}

func TestTakeoff_Rejected(t *testing.T) {
	t.Parallel()

	f := &fakeFlight{reject: true}
	c := newTestClient(f)

	require.ErrorIs(t, c.Takeoff(context.Background(), 1.2), ErrRejected)
	assert.Len(t, f.commands, 1)
}

func TestLand(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		disarm   bool
		disarmed int
	}{
		{"land and disarm", true, 1},
		{"land only", false, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeFlight{}
			c := newTestClient(f)

			require.NoError(t, c.Land(context.Background(), tc.disarm))
			assert.Equal(t, 1, f.landed)
			assert.Equal(t, tc.disarmed, f.disarmed)
		})
	}
}

func TestGoToAndWait_InvalidTolerance(t *testing.T) {
	f := &fakeFlight{offsets: []float64{0}}
	c := newTestClient(f)

	err := c.GoToAndWaitWith(context.Background(), Target{Tolerance: 0})
	require.Error(t, err)
	assert.Empty(t, f.commands)
}
