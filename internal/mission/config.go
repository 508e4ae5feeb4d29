package mission

import (
	"errors"
	"fmt"
	"time"

	"github.com/roman-kulish/waypoint-inspection/internal/vision"
)

// Altitudes used by the mission, in meters
type Altitudes struct {
	Cruise            float64 `yaml:"cruise" json:"cruise"`                       // Transit height between sites
	Inspection        float64 `yaml:"inspection" json:"inspection"`               // First pass sampling height
	RevisitInspection float64 `yaml:"revisitInspection" json:"revisitInspection"` // Second pass sampling height
	HomeApproach      float64 `yaml:"homeApproach" json:"homeApproach"`           // Height over home before landing
}

// Timing names every fixed wait of the mission
type Timing struct {
	TakeoffStabilize        time.Duration `yaml:"takeoffStabilize" json:"takeoffStabilize"`               // Ground effect settle before the first sweep
	CruiseSettle            time.Duration `yaml:"cruiseSettle" json:"cruiseSettle"`                       // After arriving over a site, first pass
	InspectionSettle        time.Duration `yaml:"inspectionSettle" json:"inspectionSettle"`               // After descending, first pass
	RevisitCruiseSettle     time.Duration `yaml:"revisitCruiseSettle" json:"revisitCruiseSettle"`         // After arriving over a site, second pass
	RevisitInspectionSettle time.Duration `yaml:"revisitInspectionSettle" json:"revisitInspectionSettle"` // After descending, second pass
	ClimbSettle             time.Duration `yaml:"climbSettle" json:"climbSettle"`                         // After climbing back to cruise
	ActuatorHold            time.Duration `yaml:"actuatorHold" json:"actuatorHold"`                       // How long a light pattern stays on
	HomeSettle              time.Duration `yaml:"homeSettle" json:"homeSettle"`                           // Over home at cruise height
	FinalSettle             time.Duration `yaml:"finalSettle" json:"finalSettle"`                         // Over home before the last landing
	InterphaseDwell         time.Duration `yaml:"interphaseDwell" json:"interphaseDwell"`                 // On the ground between the passes
	DwellNotice             time.Duration `yaml:"dwellNotice" json:"dwellNotice"`                         // Countdown narration period during the dwell
}

func (t Timing) Validate() error {
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"takeoffStabilize", t.TakeoffStabilize},
		{"cruiseSettle", t.CruiseSettle},
		{"inspectionSettle", t.InspectionSettle},
		{"revisitCruiseSettle", t.RevisitCruiseSettle},
		{"revisitInspectionSettle", t.RevisitInspectionSettle},
		{"climbSettle", t.ClimbSettle},
		{"actuatorHold", t.ActuatorHold},
		{"homeSettle", t.HomeSettle},
		{"finalSettle", t.FinalSettle},
		{"interphaseDwell", t.InterphaseDwell},
		{"dwellNotice", t.DwellNotice},
	} {
		if d.value < 0 {
			return fmt.Errorf("timing %s cannot be negative: %s given", d.name, d.value)
		}
	}
	return nil
}

// Policy decides what classification results mean
type Policy struct {
	HazardPayload  string `yaml:"hazardPayload" json:"hazardPayload"`   // Symbol payload of a confirmed hazard
	HealthyPayload string `yaml:"healthyPayload" json:"healthyPayload"` // Symbol payload of a healthy site
	AmbiguousColor string `yaml:"ambiguousColor" json:"ambiguousColor"` // Color recorded when the first pass cannot decide
}

// Diagnose maps a decoded payload to a verdict
func (p Policy) Diagnose(payload string) Diagnosis {
	switch payload {
	case p.HazardPayload:
		return DiagnosisHazard
	case p.HealthyPayload:
		return DiagnosisHealthy
	default:
		return DiagnosisNonHazard
	}
}

func (p Policy) Validate() error {
	if p.HazardPayload == "" {
		return errors.New("hazard payload is required")
	}
	if p.HazardPayload == p.HealthyPayload {
		return fmt.Errorf("hazard and healthy payloads must differ: '%s'", p.HazardPayload)
	}
	if _, err := vision.ParseColor(p.AmbiguousColor); err != nil {
		return fmt.Errorf("ambiguous color: %w", err)
	}
	return nil
}

func (p Policy) ambiguousColor() vision.Color {
	c, _ := vision.ParseColor(p.AmbiguousColor)
	return c
}

// Config is the full mission plan. The waypoint list is fixed for the
// lifetime of a mission.
type Config struct {
	Home      Waypoint   `yaml:"home" json:"home"`
	Waypoints []Waypoint `yaml:"waypoints" json:"waypoints"`
	Altitudes Altitudes  `yaml:"altitudes" json:"altitudes"`
	Timing    Timing     `yaml:"timing" json:"timing"`
	Policy    Policy     `yaml:"policy" json:"policy"`
}

// DefaultConfig returns the field defaults with an empty waypoint list
func DefaultConfig() Config {
	return Config{
		Altitudes: Altitudes{
			Cruise:            1.2,
			Inspection:        0.7,
			RevisitInspection: 0.8,
			HomeApproach:      0.8,
		},
		Timing: Timing{
			TakeoffStabilize:        12 * time.Second,
			CruiseSettle:            3 * time.Second,
			InspectionSettle:        3 * time.Second,
			RevisitCruiseSettle:     4 * time.Second,
			RevisitInspectionSettle: 3 * time.Second,
			ClimbSettle:             4 * time.Second,
			ActuatorHold:            5 * time.Second,
			HomeSettle:              5 * time.Second,
			FinalSettle:             5 * time.Second,
			InterphaseDwell:         2 * time.Minute,
			DwellNotice:             30 * time.Second,
		},
		Policy: Policy{
			HazardPayload:  "hazard",
			HealthyPayload: "healthy",
			AmbiguousColor: "yellow",
		},
	}
}

func (c *Config) Validate() error {
	if len(c.Waypoints) == 0 {
		return errors.New("mission: waypoint list is empty")
	}

	a := c.Altitudes
	for _, alt := range []struct {
		name  string
		value float64
	}{
		{"cruise", a.Cruise},
		{"inspection", a.Inspection},
		{"revisitInspection", a.RevisitInspection},
		{"homeApproach", a.HomeApproach},
	} {
		if alt.value <= 0 {
			return fmt.Errorf("mission: %s altitude must be positive: %g given", alt.name, alt.value)
		}
		if alt.value > a.Cruise {
			return fmt.Errorf("mission: %s altitude %g is above cruise altitude %g", alt.name, alt.value, a.Cruise)
		}
	}

	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("mission: %w", err)
	}

	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("mission: %w", err)
	}

	return nil
}
