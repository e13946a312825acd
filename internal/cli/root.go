package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// app carries flag values and the outcome of one command tree execution.
type app struct {
	opts    Options
	streams Streams
	base    string

	exitCode int
	err      error
}

// newRootCommand builds the compilerun command around a.
func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "compilerun [build]",
		Short: "Bootstrap a language implementation and optionally compile its output natively",
		Long: `compilerun rebuilds a language implementation, runs it, and in build mode
compiles the intermediate artifact it emits with a native compiler, runs the
resulting binary and prints its exit status on a line of its own.

With no argument only the bootstrap build and the implementation run. Stage
failures are logged but never stop the pipeline unless --strict is given.
Use --history or --latest to list recorded runs instead.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := a.parse(args)
			if err != nil {
				a.exitCode, a.err = ExitCode(err), err
				return nil
			}
			if inv.History {
				a.exitCode, a.err = ListHistory(cmd.Context(), inv, a.streams.Stdout)
				return nil
			}
			res, err := Execute(cmd.Context(), inv, a.streams)
			a.exitCode, a.err = res.ExitCode, err
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.WorkDir, "workdir", "", "Directory the pipeline runs in (or set COMPILERUN_WORKDIR)")
	pf.StringVar(&a.opts.ConfigPath, "config", "", "Config file (default: <workdir>/compilerun.yaml)")
	pf.StringVar(&a.opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.opts.LogFormat, "log-format", "", "Log format: console, json")

	f := root.Flags()
	f.BoolVar(&a.opts.Strict, "strict", false, "Stop at the first failing stage and reject unrecognized modes")
	f.StringVar(&a.opts.TracePath, "trace", "", "Write the execution trace as JSON to this file")
	f.BoolVar(&a.opts.NoHistory, "no-history", false, "Do not record this run in the history")
	f.BoolVar(&a.opts.History, "history", false, "List recorded runs, oldest first, instead of running the pipeline")
	f.BoolVar(&a.opts.Latest, "latest", false, "List only the most recent recorded run (implies --history)")
	f.StringVar(&a.opts.Compiler, "cxx", "", "Native compiler (or set COMPILERUN_CXX)")
	f.StringVar(&a.opts.OptLevel, "opt", "", "Native optimization level, e.g. 2 or s (or set COMPILERUN_OPT)")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalidInvocationf("%v", err)
	})

	// The root takes free-form mode words, so it must never grow
	// subcommands: cobra would claim "help" or "completion" as commands
	// instead of modes.
	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

func (a *app) parse(args []string) (CLIInvocation, error) {
	opts := a.opts
	if opts.WorkDir == "" {
		opts.WorkDir = os.Getenv("COMPILERUN_WORKDIR")
	}
	return ParseInvocation(opts, args, a.base)
}

func (a *app) fail(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(a.streams.Stderr, "compilerun: %v\n", err)
}
