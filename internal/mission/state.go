package mission

const (
	StateGrounded State = iota
	StateAscending
	StatePhase1Sweeping
	StateReturningHome1
	StateGroundedInterim
	StateAscending2
	StatePhase2Sweeping
	StateReturningHome2
	StateLanded
	StateAborted
)

// State is a mission phase
type State int

func (s State) String() string {
	switch s {
	case StateGrounded:
		return "grounded"
	case StateAscending:
		return "ascending"
	case StatePhase1Sweeping:
		return "phase1-sweeping"
	case StateReturningHome1:
		return "returning-home-1"
	case StateGroundedInterim:
		return "grounded-interim"
	case StateAscending2:
		return "ascending-2"
	case StatePhase2Sweeping:
		return "phase2-sweeping"
	case StateReturningHome2:
		return "returning-home-2"
	case StateLanded:
		return "landed"
	case StateAborted:
		return "aborted"
	default:
		return "invalid"
	}
}

const (
	StepNavigating SiteStep = iota
	StepDescending
	StepClassifying
	StepSignalling
	StepClimbing
	StepCommitted
)

// SiteStep is the position inside the per-site sub-sequence
type SiteStep int

func (s SiteStep) String() string {
	switch s {
	case StepNavigating:
		return "navigating"
	case StepDescending:
		return "descending"
	case StepClassifying:
		return "classifying"
	case StepSignalling:
		return "signalling"
	case StepClimbing:
		return "climbing"
	case StepCommitted:
		return "committed"
	default:
		return "invalid"
	}
}
