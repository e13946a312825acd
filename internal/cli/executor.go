package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"compilerun/internal/config"
	"compilerun/internal/core"
	"compilerun/internal/logging"
	"compilerun/internal/pipeline"
	"compilerun/internal/trace"
)

// Streams are the standard streams of one invocation. Child processes
// inherit them and the exit status report goes to Stdout.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (s Streams) withDefaults() Streams {
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}
	return s
}

type CLIResult struct {
	ExitCode int
	Result   *pipeline.Result

	// RunID names the history record, empty when history is disabled or
	// could not be written.
	RunID string
}

// Execute maps a canonical CLIInvocation to a pipeline run.
//
// Responsibilities:
//   - Load and validate configuration, applying env and flag overrides.
//   - Run the planned stages under the selected failure policy.
//   - Record run history and the trace file, best-effort.
//   - Translate pipeline outcomes to semantic exit codes.
func Execute(ctx context.Context, inv CLIInvocation, streams Streams) (res CLIResult, execErr error) {
	res.ExitCode = ExitInternalError
	streams = streams.withDefaults()

	defer func() {
		if r := recover(); r != nil {
			res.ExitCode = ExitInternalError
			execErr = fmt.Errorf("internal error: %v", r)
		}
	}()

	cfg, err := loadConfig(inv)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}

	log, err := logging.NewWithWriter(cfg.Logging.Level, cfg.Logging.Format, streams.Stderr)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	defer func() { _ = log.Sync() }()

	if !inv.ModeRecognized {
		log.Warn("unrecognized mode, running bootstrap only",
			zap.String("mode", inv.RawMode),
			zap.String("expected", string(pipeline.ModeBuild)))
	}

	if len(inv.IgnoredArgs) > 0 {
		log.Warn("ignoring extra arguments", zap.Strings("args", inv.IgnoredArgs))
	}

	policy := pipeline.Policy(cfg.Policy)
	if inv.Strict {
		policy = pipeline.PolicyFailFast
	}

	driver, err := pipeline.NewDriver(inv.Mode, policy, pipeline.Plan(cfg, inv.Mode), core.NewExecutor(streams.Stdout, streams.Stderr), streams.Stdout)
	if err != nil {
		return res, err
	}
	rec := trace.NewRecorder()
	driver.Logger = log
	driver.Trace = rec

	log.Info("pipeline starting",
		zap.String("mode", string(inv.Mode)),
		zap.String("policy", string(policy)),
		zap.String("workdir", cfg.WorkDir),
		zap.String("plan_hash", driver.PlanHash()))

	start := time.Now().UTC()
	result, runErr := driver.Run(ctx)
	end := time.Now().UTC()
	res.Result = result

	var traceHash string
	if result != nil {
		tr := rec.Trace(result.PlanHash)
		if traceHash, err = tr.Hash(); err != nil {
			log.Warn("cannot hash trace", zap.Error(err))
		}
		if !inv.NoHistory {
			res.RunID = recordHistory(log, cfg, result, traceHash, start, end)
		}
		if inv.TracePath != "" {
			if err := trace.WriteFile(inv.TracePath, tr); err != nil {
				log.Warn("failed to write trace", zap.String("path", inv.TracePath), zap.Error(err))
			}
		}
	}

	var stageErr *pipeline.StageError
	switch {
	case runErr == nil:
		res.ExitCode = ExitSuccess
	case errors.As(runErr, &stageErr):
		res.ExitCode = ExitPipelineFailure
	default:
		res.ExitCode = ExitInternalError
	}

	log.Info("pipeline finished",
		zap.String("final_state", finalState(result)),
		zap.String("trace_hash", traceHash),
		zap.String("run_id", res.RunID),
		zap.Int("exit_code", res.ExitCode))
	return res, runErr
}

// loadConfig layers defaults, the config file, the environment and flags,
// in increasing precedence.
func loadConfig(inv CLIInvocation) (*config.Config, error) {
	if inv.ConfigExplicit {
		if _, err := os.Stat(inv.ConfigPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", inv.ConfigPath, err)
		}
	}
	cfg, err := config.Load(inv.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if inv.WorkDirExplicit {
		cfg.WorkDir = inv.WorkDir
	} else {
		cfg.WorkDir = resolveUnder(inv.WorkDir, cfg.WorkDir)
	}
	if inv.Compiler != "" {
		cfg.Native.Compiler = inv.Compiler
	}
	if inv.OptLevel != "" {
		cfg.Native.OptimizationLevel = inv.OptLevel
	}
	if inv.LogLevel != "" {
		cfg.Logging.Level = inv.LogLevel
	}
	if inv.LogFormat != "" {
		cfg.Logging.Format = inv.LogFormat
	}

	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func finalState(r *pipeline.Result) string {
	if r == nil {
		return ""
	}
	return string(r.FinalState)
}
