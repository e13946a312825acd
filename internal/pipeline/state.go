package pipeline

import "fmt"

// State is the progress of a single driver invocation.
type State string

const (
	StateStart               State = "START"
	StateBuilt               State = "BUILT"
	StateRanImpl             State = "RAN_IMPL"
	StateCompiled            State = "COMPILED"
	StateExecutedAndReported State = "EXECUTED_AND_REPORTED"
	StateDone                State = "DONE"
	StateAborted             State = "ABORTED"
)

// IsTerminal reports whether no further transition is possible.
func IsTerminal(s State) bool {
	return s == StateDone || s == StateAborted
}

// stateAfter is the state a completed stage leads to.
func stateAfter(kind StageKind) (State, error) {
	switch kind {
	case StageBootstrapBuild:
		return StateBuilt, nil
	case StageRunImplementation:
		return StateRanImpl, nil
	case StageNativeCompile:
		return StateCompiled, nil
	case StageExecute:
		return StateExecutedAndReported, nil
	default:
		return "", fmt.Errorf("unknown stage kind %q", kind)
	}
}

// Transition validates a state change.
//
// The caller supplies the expected prior state (from) so that an
// out-of-order driver is caught rather than silently accepted.
func Transition(cur *State, from, to State) error {
	if cur == nil {
		return fmt.Errorf("nil state")
	}
	if *cur != from {
		return fmt.Errorf("invalid transition: expected %s, got %s", from, *cur)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	*cur = to
	return nil
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateStart:
		return to == StateBuilt || to == StateAborted
	case StateBuilt:
		return to == StateRanImpl || to == StateAborted
	case StateRanImpl:
		return to == StateDone || to == StateCompiled || to == StateAborted
	case StateCompiled:
		return to == StateExecutedAndReported || to == StateAborted
	case StateExecutedAndReported:
		return to == StateDone
	default:
		return false
	}
}
