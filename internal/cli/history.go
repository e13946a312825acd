package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"compilerun/internal/config"
	"compilerun/internal/pipeline"
	"compilerun/internal/state"
)

// recordHistory persists a finished run and returns its ID. Failures are
// logged and yield an empty ID; history never changes the exit code.
func recordHistory(log *zap.Logger, cfg *config.Config, result *pipeline.Result, traceHash string, start, end time.Time) string {
	st, err := state.NewStore(cfg.StatePath())
	if err != nil {
		log.Warn("run history unavailable", zap.Error(err))
		return ""
	}
	run := runFromResult(state.NewRunID(), result, start, end)
	run.TraceHash = traceHash
	if err := st.SaveRun(run); err != nil {
		log.Warn("failed to record run", zap.String("run_id", run.RunID), zap.Error(err))
		return ""
	}
	log.Debug("run recorded", zap.String("run_id", run.RunID), zap.String("status", string(run.Status)))
	return run.RunID
}

func runFromResult(runID string, result *pipeline.Result, start, end time.Time) state.Run {
	run := state.Run{
		RunID:            runID,
		PlanHash:         result.PlanHash,
		StartTime:        start,
		EndTime:          end,
		Mode:             string(result.Mode),
		Policy:           string(result.Policy),
		Status:           state.RunStatusSucceeded,
		Stages:           make([]state.StageRecord, 0, len(result.Stages)),
		ReportedExitCode: result.ReportedExitCode,
		Artifacts:        result.Artifacts,
	}
	switch {
	case !pipeline.IsTerminal(result.FinalState):
		// The driver stopped on an internal error mid-plan.
		run.Status = state.RunStatusFailed
	case result.FinalState == pipeline.StateAborted:
		run.Status = state.RunStatusAborted
	case result.Failed():
		run.Status = state.RunStatusFailed
	}
	for _, s := range result.Stages {
		rec := state.StageRecord{
			Kind:       string(s.Kind),
			Command:    s.Command.String(),
			ExitCode:   s.ExitCode,
			Launched:   s.Launched,
			Skipped:    s.Skipped,
			DurationMS: s.Duration.Milliseconds(),
		}
		if s.Err != nil {
			rec.Error = s.Err.Error()
		}
		run.Stages = append(run.Stages, rec)
	}
	return run
}

// ListHistory prints recorded runs, oldest first, one per line. With
// inv.Latest only the most recent run is printed.
func ListHistory(_ context.Context, inv CLIInvocation, w io.Writer) (int, error) {
	cfg, err := loadConfig(inv)
	if err != nil {
		return ExitConfigError, err
	}
	st, err := state.NewStore(cfg.StatePath())
	if err != nil {
		return ExitConfigError, err
	}

	var (
		runs []state.Run
		bad  []error
	)
	if inv.Latest {
		r, err := st.Latest()
		switch {
		case errors.Is(err, state.ErrNoRuns):
		case err != nil:
			return ExitInternalError, fmt.Errorf("loading latest run: %w", err)
		default:
			runs = []state.Run{r}
		}
	} else {
		runs, bad, err = st.ListRuns()
		if err != nil {
			return ExitInternalError, fmt.Errorf("listing runs: %w", err)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN ID\tMODE\tSTATUS\tREPORTED")
	for _, r := range runs {
		reported := "-"
		if r.ReportedExitCode != nil {
			reported = strconv.Itoa(*r.ReportedExitCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.StartTime.Format(time.RFC3339), r.RunID, r.Mode, r.Status, reported)
	}
	if err := tw.Flush(); err != nil {
		return ExitInternalError, err
	}
	if len(bad) > 0 {
		return ExitSuccess, fmt.Errorf("skipped unreadable runs: %w", errors.Join(bad...))
	}
	return ExitSuccess, nil
}
