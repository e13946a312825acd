package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"compilerun/internal/core"
)

type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusAborted   RunStatus = "aborted"
)

// Run is the persisted record of one driver invocation.
type Run struct {
	RunID            string          `json:"run_id"`
	PlanHash         string          `json:"plan_hash"`
	TraceHash        string          `json:"trace_hash,omitempty"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          time.Time       `json:"end_time"`
	Mode             string          `json:"mode"`
	Policy           string          `json:"policy"`
	Status           RunStatus       `json:"status"`
	Stages           []StageRecord   `json:"stages"`
	ReportedExitCode *int            `json:"reported_exit_code"`
	Artifacts        []core.Artifact `json:"artifacts"`
}

// StageRecord is the persisted outcome of one stage.
type StageRecord struct {
	Kind       string `json:"kind"`
	Command    string `json:"command"`
	ExitCode   int    `json:"exit_code"`
	Launched   bool   `json:"launched"`
	Skipped    bool   `json:"skipped"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func (r Run) Validate() error {
	var errs []error
	if strings.TrimSpace(r.RunID) == "" {
		errs = append(errs, errors.New("run_id is required"))
	}
	if strings.TrimSpace(r.PlanHash) == "" {
		errs = append(errs, errors.New("plan_hash is required"))
	}
	if r.StartTime.IsZero() {
		errs = append(errs, errors.New("start_time is required"))
	}
	if !r.EndTime.IsZero() && r.EndTime.Before(r.StartTime) {
		errs = append(errs, errors.New("end_time must not precede start_time"))
	}
	if strings.TrimSpace(r.Mode) == "" {
		errs = append(errs, errors.New("mode is required"))
	}
	switch r.Status {
	case RunStatusSucceeded, RunStatusFailed, RunStatusAborted:
	default:
		errs = append(errs, fmt.Errorf("invalid status %q", r.Status))
	}
	if r.Stages == nil {
		errs = append(errs, errors.New("stages must be an array (not null)"))
	}
	for i, s := range r.Stages {
		if strings.TrimSpace(s.Kind) == "" {
			errs = append(errs, fmt.Errorf("stages[%d].kind is required", i))
		}
	}
	return errors.Join(errs...)
}
