package pipeline

import (
	"fmt"

	"compilerun/internal/config"
)

// Mode selects how much of the pipeline runs.
type Mode string

const (
	// ModeBootstrap runs the build and the implementation only.
	ModeBootstrap Mode = "bootstrap"
	// ModeBuild additionally compiles and executes the native binary.
	ModeBuild Mode = "build"
)

// ParseMode maps the positional mode argument to a Mode.
//
// Only the exact literal "build" selects ModeBuild. The empty string selects
// ModeBootstrap. Any other value also yields ModeBootstrap with
// recognized == false, leaving the accept/reject decision to the caller.
func ParseMode(raw string) (mode Mode, recognized bool) {
	switch raw {
	case "":
		return ModeBootstrap, true
	case string(ModeBuild):
		return ModeBuild, true
	default:
		return ModeBootstrap, false
	}
}

// Policy decides what a failing stage does to the rest of the run.
type Policy string

const (
	// PolicyContinue runs every planned stage regardless of failures.
	PolicyContinue Policy = config.PolicyContinue
	// PolicyFailFast stops at the first failing stage.
	PolicyFailFast Policy = config.PolicyFailFast
)

// ParsePolicy validates a policy name.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(raw) {
	case PolicyContinue, PolicyFailFast:
		return Policy(raw), nil
	default:
		return "", fmt.Errorf("invalid policy %q (expected %s|%s)", raw, PolicyContinue, PolicyFailFast)
	}
}
