package mission

import (
	"fmt"

	"github.com/roman-kulish/waypoint-inspection/internal/vision"
)

const (
	DiagnosisUnknown Diagnosis = iota
	DiagnosisHazard
	DiagnosisHealthy
	DiagnosisNonHazard
)

// Waypoint is a ground marker position in the marker map frame. Waypoints
// compare by value.
type Waypoint struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

func (w Waypoint) String() string {
	return fmt.Sprintf("(%g, %g)", w.X, w.Y)
}

// Diagnosis is the second pass verdict for a site
type Diagnosis int

func (d Diagnosis) String() string {
	switch d {
	case DiagnosisHazard:
		return "hazard"
	case DiagnosisHealthy:
		return "healthy"
	case DiagnosisNonHazard:
		return "non-hazard"
	default:
		return "unknown"
	}
}

// SiteOutcome is everything learned about one waypoint
type SiteOutcome struct {
	Index    int      // Position in the waypoint list, also the report row
	Waypoint Waypoint // Site position

	Color     vision.Color // First pass color
	Ambiguous bool         // Color could not be decided, Color holds the policy fallback. Unset on camera faults

	Diagnosis  Diagnosis // Second pass verdict, provisional Healthy for green sites
	Symbol     string    // Most frequent decoded payload
	SymbolSeen bool      // False when the second pass decoded nothing
	Revisited  bool      // The second pass completed for this site
}

// FlaggedForRevisit reports whether the site goes to the second pass
func (o SiteOutcome) FlaggedForRevisit() bool {
	return o.Color == vision.ColorRed || o.Color == vision.ColorYellow
}

// Marker is the first pass report marker: + red, ? yellow or undecided, - green
func (o SiteOutcome) Marker() string {
	switch o.Color {
	case vision.ColorRed:
		return "+"
	case vision.ColorGreen:
		return "-"
	default:
		return "?"
	}
}

// RevisitEntry is a flagged waypoint together with its index in the full list
type RevisitEntry struct {
	Index    int
	Waypoint Waypoint
}

// RevisitQueue lists flagged sites in waypoint order
type RevisitQueue []RevisitEntry

// Ledger is the ordered record of site outcomes, one per visited waypoint
type Ledger struct {
	outcomes []SiteOutcome
}

func NewLedger(capacity int) *Ledger {
	return &Ledger{outcomes: make([]SiteOutcome, 0, capacity)}
}

// Len returns the number of recorded sites
func (l *Ledger) Len() int {
	return len(l.outcomes)
}

// Outcomes returns a copy of the recorded outcomes in waypoint order
func (l *Ledger) Outcomes() []SiteOutcome {
	return append([]SiteOutcome(nil), l.outcomes...)
}

// At returns the outcome of the waypoint at index
func (l *Ledger) At(index int) (SiteOutcome, bool) {
	if index < 0 || index >= len(l.outcomes) {
		return SiteOutcome{}, false
	}
	return l.outcomes[index], true
}

// RevisitQueue derives the flagged sites, keeping their waypoint indices
func (l *Ledger) RevisitQueue() RevisitQueue {
	var queue RevisitQueue
	for _, o := range l.outcomes {
		if o.FlaggedForRevisit() {
			queue = append(queue, RevisitEntry{Index: o.Index, Waypoint: o.Waypoint})
		}
	}
	return queue
}

func (l *Ledger) clone() *Ledger {
	return &Ledger{outcomes: l.Outcomes()}
}

// add records the next site; sites must arrive in waypoint order
func (l *Ledger) add(o SiteOutcome) error {
	if o.Index != len(l.outcomes) {
		return fmt.Errorf("ledger: site %d recorded out of order, expected %d", o.Index, len(l.outcomes))
	}
	l.outcomes = append(l.outcomes, o)
	return nil
}

// update replaces the outcome at o.Index
func (l *Ledger) update(o SiteOutcome) error {
	if o.Index < 0 || o.Index >= len(l.outcomes) {
		return fmt.Errorf("ledger: no site %d", o.Index)
	}
	l.outcomes[o.Index] = o
	return nil
}
