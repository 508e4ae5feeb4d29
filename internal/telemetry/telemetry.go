package telemetry

import (
	"time"

	"gonum.org/v1/gonum/floats"
)

const (
	FrameMarkerMap      Frame = "aruco_map"       // Ground marker grid, origin at the home marker
	FrameBody           Frame = "body"            // Vehicle body frame
	FrameNavigateTarget Frame = "navigate_target" // Offset from the current navigation target
)

// Frame names the reference frame a position is expressed in
type Frame string

// Position is the vehicle position reported by the flight stack
type Position struct {
	Timestamp time.Time `json:"timestamp"` // Timestamp of telemetry measurement
	Frame     Frame     `json:"frame"`     // Reference frame of X, Y and Z
	X         float64   `json:"x"`         // X in meters
	Y         float64   `json:"y"`         // Y in meters
	Z         float64   `json:"z"`         // Z (altitude in map frame) in meters
}

// Norm returns the Euclidean length of the position vector. In the
// navigate_target frame this is the distance left to the target.
func (p Position) Norm() float64 {
	return floats.Norm([]float64{p.X, p.Y, p.Z}, 2)
}
