package flight

import (
	"context"
	"math"

	"github.com/roman-kulish/waypoint-inspection/internal/telemetry"
)

// MoveCommand is a single position setpoint sent to the flight stack
type MoveCommand struct {
	X       float64         // X in meters, in Frame
	Y       float64         // Y in meters, in Frame
	Z       float64         // Z in meters, in Frame
	Yaw     float64         // Heading in radians, NaN keeps the current heading
	Speed   float64         // Transit speed in m/s
	Frame   telemetry.Frame // Reference frame of X, Y and Z
	AutoArm bool            // Arm and switch to offboard mode if required
}

// HoldHeading returns a yaw value that keeps the current heading
func HoldHeading() float64 {
	return math.NaN()
}

// Navigator issues position setpoints. Navigate returns immediately: accepted
// is false when the flight stack refused the command, err is set on transport
// failure.
type Navigator interface {
	Navigate(ctx context.Context, cmd MoveCommand) (accepted bool, err error)
}

// Arming switches propulsion on and off
type Arming interface {
	SetArmed(ctx context.Context, armed bool) error
}

// Lander triggers the automatic landing mode
type Lander interface {
	Land(ctx context.Context) error
}

// Services bundles the flight stack collaborators used by the navigation client
type Services struct {
	Telemetry telemetry.Provider
	Navigator Navigator
	Arming    Arming
	Lander    Lander
}
