package pipeline

import (
	"time"

	"compilerun/internal/core"
)

// StageResult is the outcome of one planned stage.
type StageResult struct {
	Kind     StageKind
	Command  core.Command
	ExitCode int
	Launched bool
	Duration time.Duration
	Err      error

	// Skipped is set for stages that never ran because the run aborted.
	Skipped bool
}

// Failed reports whether the stage ran (or tried to) and did not exit 0.
func (r StageResult) Failed() bool {
	if r.Skipped {
		return false
	}
	return !r.execution().Succeeded()
}

func (r StageResult) execution() core.ExecutionResult {
	return core.ExecutionResult{ExitCode: r.ExitCode, Launched: r.Launched, Duration: r.Duration, Err: r.Err}
}

// Result summarizes a driver invocation.
type Result struct {
	Mode       Mode
	Policy     Policy
	PlanHash   string
	FinalState State

	// Order lists the stages that were started, in order.
	Order []StageKind

	// Stages holds one entry per planned stage, including skipped ones.
	Stages []StageResult

	// ReportedExitCode is the status printed by the execute stage, if it ran.
	ReportedExitCode *int

	// Artifacts are observations of produced files, taken after their stage.
	Artifacts []core.Artifact
}

// Failed reports whether any stage failed.
func (r *Result) Failed() bool {
	return r.FirstFailure() != nil
}

// FirstFailure returns the earliest failing stage, or nil.
func (r *Result) FirstFailure() *StageResult {
	if r == nil {
		return nil
	}
	for i := range r.Stages {
		if r.Stages[i].Failed() {
			return &r.Stages[i]
		}
	}
	return nil
}

// Stage returns the result for kind, if it was planned.
func (r *Result) Stage(kind StageKind) (StageResult, bool) {
	if r == nil {
		return StageResult{}, false
	}
	for _, s := range r.Stages {
		if s.Kind == kind {
			return s, true
		}
	}
	return StageResult{}, false
}
