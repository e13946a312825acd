package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"compilerun/internal/config"
	"compilerun/internal/pipeline"
)

const (
	ExitSuccess           = 0
	ExitPipelineFailure   = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// Options are the raw flag values as the user typed them.
type Options struct {
	WorkDir    string
	ConfigPath string
	Strict     bool
	TracePath  string
	NoHistory  bool
	History    bool
	Latest     bool
	LogLevel   string
	LogFormat  string
	Compiler   string
	OptLevel   string
}

// CLIInvocation is the canonical description of a run.
//
// WorkDir is absolute and every other path is resolved against it, so
// nothing downstream depends on the process working directory.
type CLIInvocation struct {
	WorkDir string

	// WorkDirExplicit is set when the user named the working directory; it
	// then overrides any workdir from the config file.
	WorkDirExplicit bool

	ConfigPath string

	// ConfigExplicit is set when the user named the config file; a missing
	// explicit file is an error, a missing default file is not.
	ConfigExplicit bool

	RawMode        string
	Mode           pipeline.Mode
	ModeRecognized bool

	// IgnoredArgs are positional arguments after the mode.
	IgnoredArgs []string

	Strict    bool
	TracePath string
	NoHistory bool

	// History lists recorded runs instead of running the pipeline; Latest
	// narrows the listing to the most recent run.
	History bool
	Latest  bool

	LogLevel  string
	LogFormat string
	Compiler  string
	OptLevel  string
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation canonicalizes raw options and positional arguments.
//
// The first positional argument is the mode. Only the literal "build"
// selects the full pipeline. Other values fall back to bootstrap mode and
// further arguments are ignored, unless Strict is set, in which case both
// are rejected.
//
// base is the directory relative WorkDir values are resolved against; it
// must be absolute.
func ParseInvocation(opts Options, args []string, base string) (CLIInvocation, error) {
	if len(args) > 1 && opts.Strict {
		return CLIInvocation{}, invalidInvocationf("expected at most one mode argument, got %d: %q", len(args), strings.Join(args, " "))
	}
	if !filepath.IsAbs(base) {
		return CLIInvocation{}, fmt.Errorf("base directory must be absolute (got %q)", base)
	}

	raw := ""
	if len(args) > 0 {
		raw = args[0]
	}
	mode, recognized := pipeline.ParseMode(raw)
	if !recognized && opts.Strict {
		return CLIInvocation{}, invalidInvocationf("unrecognized mode %q (expected no argument or %q)", raw, pipeline.ModeBuild)
	}

	workDir := strings.TrimSpace(opts.WorkDir)
	if workDir == "" {
		workDir = "."
	}
	workDir = resolveUnder(base, workDir)

	inv := CLIInvocation{
		WorkDir:         workDir,
		WorkDirExplicit: strings.TrimSpace(opts.WorkDir) != "",
		RawMode:         raw,
		Mode:            mode,
		ModeRecognized:  recognized,
		IgnoredArgs:     append([]string(nil), args[min(len(args), 1):]...),
		Strict:          opts.Strict,
		NoHistory:       opts.NoHistory,
		History:         opts.History || opts.Latest,
		Latest:          opts.Latest,
		LogLevel:        strings.ToLower(strings.TrimSpace(opts.LogLevel)),
		LogFormat:       strings.ToLower(strings.TrimSpace(opts.LogFormat)),
		Compiler:        strings.TrimSpace(opts.Compiler),
		OptLevel:        strings.TrimSpace(opts.OptLevel),
	}

	if strings.TrimSpace(opts.ConfigPath) != "" {
		inv.ConfigPath = resolveUnder(workDir, opts.ConfigPath)
		inv.ConfigExplicit = true
	} else {
		inv.ConfigPath = filepath.Join(workDir, config.DefaultFileName)
	}

	if strings.TrimSpace(opts.TracePath) != "" {
		clean := filepath.Clean(opts.TracePath)
		if clean == "." {
			return CLIInvocation{}, invalidInvocationf("--trace must name a file")
		}
		inv.TracePath = resolveUnder(workDir, clean)
	}

	switch inv.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return CLIInvocation{}, invalidInvocationf("invalid --log-level %q (expected debug|info|warn|error)", opts.LogLevel)
	}
	switch inv.LogFormat {
	case "", "console", "json":
	default:
		return CLIInvocation{}, invalidInvocationf("invalid --log-format %q (expected console|json)", opts.LogFormat)
	}

	return inv, nil
}

func resolveUnder(base, p string) string {
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		return clean
	}
	return filepath.Clean(filepath.Join(base, clean))
}

// ExitCode extracts a semantic exit code from an error.
// Unknown errors map to ExitInternalError.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	return ExitInternalError
}
