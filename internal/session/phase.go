package session

import "fmt"

// Phase is a state of the session controller.
type Phase int

const (
	PhaseSynthesizing Phase = iota
	PhaseReviewing
	PhaseRunning
	PhaseRegenerating
	PhaseEditing
	PhaseRecovering
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseSynthesizing:
		return "synthesizing"
	case PhaseReviewing:
		return "reviewing"
	case PhaseRunning:
		return "running"
	case PhaseRegenerating:
		return "regenerating"
	case PhaseEditing:
		return "editing"
	case PhaseRecovering:
		return "recovering"
	case PhaseTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

var phaseTransitions = map[Phase]map[Phase]bool{
	PhaseSynthesizing: {
		PhaseReviewing: true,
	},
	PhaseReviewing: {
		PhaseRunning:      true,
		PhaseRegenerating: true,
		PhaseEditing:      true,
		PhaseTerminated:   true,
	},
	PhaseRunning: {
		PhaseRecovering: true,
		PhaseTerminated: true,
	},
	PhaseRegenerating: {
		PhaseReviewing:  true,
		PhaseTerminated: true,
	},
	PhaseEditing: {
		PhaseReviewing:  true,
		PhaseRecovering: true,
	},
	PhaseRecovering: {
		PhaseRegenerating: true,
		PhaseEditing:      true,
		PhaseTerminated:   true,
	},
}

// CanTransition reports whether the controller may move from one phase to
// another. Recovering is only reachable from a failed run or a failed edit
// that was started from Recovering.
func CanTransition(from, to Phase) bool {
	return phaseTransitions[from][to]
}
