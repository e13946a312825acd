package pipeline

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"compilerun/internal/core"
	"compilerun/internal/logging"
	"compilerun/internal/trace"
)

// Driver executes a stage plan serially.
type Driver struct {
	Mode   Mode
	Policy Policy
	Stages []Stage

	// Runner executes each stage's command.
	Runner core.Runner

	// Report receives the execute stage's exit status as a decimal line.
	Report io.Writer

	Logger *zap.Logger
	Trace  trace.Sink
}

// NewDriver creates a driver for the given plan.
func NewDriver(mode Mode, policy Policy, stages []Stage, runner core.Runner, report io.Writer) (*Driver, error) {
	if runner == nil {
		return nil, fmt.Errorf("nil runner")
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("empty plan")
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if report == nil {
		report = io.Discard
	}
	return &Driver{
		Mode:   mode,
		Policy: policy,
		Stages: stages,
		Runner: runner,
		Report: report,
		Logger: logging.Nop(),
		Trace:  trace.NopSink{},
	}, nil
}

// PlanHash identifies the driver's plan.
func (d *Driver) PlanHash() string {
	return PlanHash(d.Mode, d.Stages)
}

// Run executes every planned stage in order, blocking on each.
//
// Under PolicyContinue stage failures never stop the run and the returned
// error is nil. Under PolicyFailFast the first failing stage ends the run
// and a *StageError is returned alongside the result. Any other error
// indicates a driver bug.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := d.Logger
	if log == nil {
		log = logging.Nop()
	}

	res := &Result{
		Mode:       d.Mode,
		Policy:     d.Policy,
		PlanHash:   d.PlanHash(),
		FinalState: StateStart,
		Order:      make([]StageKind, 0, len(d.Stages)),
		Stages:     make([]StageResult, 0, len(d.Stages)),
	}

	for i, stage := range d.Stages {
		log.Info("stage starting",
			zap.String("stage", string(stage.Kind)),
			zap.String("command", stage.Command.String()))
		trace.SafeRecord(d.Trace, trace.TraceEvent{Kind: trace.EventStageStarted, Stage: string(stage.Kind)})

		res.Order = append(res.Order, stage.Kind)
		exec := d.Runner.Run(ctx, stage.Command)
		sr := StageResult{
			Kind:     stage.Kind,
			Command:  stage.Command,
			ExitCode: exec.ExitCode,
			Launched: exec.Launched,
			Duration: exec.Duration,
			Err:      exec.Err,
		}
		res.Stages = append(res.Stages, sr)
		d.recordOutcome(log, sr)

		if stage.ReportsExit {
			code := sr.ExitCode
			res.ReportedExitCode = &code
			if _, err := fmt.Fprintf(d.Report, "%d\n", code); err != nil {
				log.Warn("failed to write exit status report", zap.Error(err))
			}
			trace.SafeRecord(d.Trace, trace.TraceEvent{Kind: trace.EventExitReported, Stage: string(stage.Kind), ExitCode: trace.Code(code)})
		}

		if stage.Produces != "" {
			d.observe(log, res, stage)
		}

		last := i == len(d.Stages)-1
		if sr.Failed() && d.Policy == PolicyFailFast && !last {
			if err := Transition(&res.FinalState, res.FinalState, StateAborted); err != nil {
				return res, err
			}
			for _, rest := range d.Stages[i+1:] {
				res.Stages = append(res.Stages, StageResult{Kind: rest.Kind, Command: rest.Command, Skipped: true})
				trace.SafeRecord(d.Trace, trace.TraceEvent{Kind: trace.EventStageSkipped, Stage: string(rest.Kind), Reason: "Aborted"})
				log.Info("stage skipped", zap.String("stage", string(rest.Kind)))
			}
			return res, &StageError{Kind: sr.Kind, ExitCode: sr.ExitCode, Err: sr.Err, Aborted: true}
		}

		next, err := stateAfter(stage.Kind)
		if err != nil {
			return res, err
		}
		if err := Transition(&res.FinalState, res.FinalState, next); err != nil {
			return res, err
		}
	}

	if err := Transition(&res.FinalState, res.FinalState, StateDone); err != nil {
		return res, err
	}

	if d.Policy == PolicyFailFast {
		if f := res.FirstFailure(); f != nil {
			return res, &StageError{Kind: f.Kind, ExitCode: f.ExitCode, Err: f.Err}
		}
	}
	return res, nil
}

func (d *Driver) recordOutcome(log *zap.Logger, sr StageResult) {
	fields := []zap.Field{
		zap.String("stage", string(sr.Kind)),
		zap.Int("exit_code", sr.ExitCode),
		zap.Duration("duration", sr.Duration),
	}
	if !sr.Failed() {
		log.Info("stage finished", fields...)
		trace.SafeRecord(d.Trace, trace.TraceEvent{Kind: trace.EventStageSucceeded, Stage: string(sr.Kind), ExitCode: trace.Code(sr.ExitCode)})
		return
	}

	reason := "NonZeroExit"
	if !sr.Launched {
		reason = "LaunchFailed"
	} else if sr.Err != nil {
		reason = "Interrupted"
	}
	if sr.Err != nil {
		fields = append(fields, zap.Error(sr.Err))
	}
	fields = append(fields, zap.String("reason", reason))
	log.Warn("stage failed", fields...)
	trace.SafeRecord(d.Trace, trace.TraceEvent{Kind: trace.EventStageFailed, Stage: string(sr.Kind), ExitCode: trace.Code(sr.ExitCode), Reason: reason})
}

// observe inspects a stage's expected output. Missing or unreadable files
// are logged, never acted on.
func (d *Driver) observe(log *zap.Logger, res *Result, stage Stage) {
	a, err := core.InspectArtifact(stage.Produces)
	if err != nil {
		log.Warn("cannot inspect artifact", zap.String("stage", string(stage.Kind)), zap.Error(err))
		return
	}
	res.Artifacts = append(res.Artifacts, a)
	if !a.Exists {
		log.Warn("expected artifact not found",
			zap.String("stage", string(stage.Kind)),
			zap.String("path", a.Path))
		return
	}
	log.Debug("artifact observed",
		zap.String("stage", string(stage.Kind)),
		zap.String("path", a.Path),
		zap.Int64("size", a.Size),
		zap.String("sha256", a.SHA256))
}
