package pipeline

import (
	"errors"
	"fmt"
)

// ErrAborted marks a run that stopped before its last planned stage.
var ErrAborted = errors.New("pipeline aborted")

// StageError describes a failing stage.
//
// There is a single failure category: the process exited non-zero or could
// not be launched. Err carries the launch/cancellation cause when there is one.
type StageError struct {
	Kind     StageKind
	ExitCode int
	Err      error
	Aborted  bool
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("stage %s failed with exit status %d", e.Kind, e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Aborted {
		msg += " (remaining stages skipped)"
	}
	return msg
}

func (e *StageError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Aborted {
		errs = append(errs, ErrAborted)
	}
	return errs
}
