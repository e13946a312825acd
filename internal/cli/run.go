package cli

import (
	"context"
	"fmt"
	"os"
)

// Run is a high-level CLI entrypoint suitable for black-box tests.
// It accepts the argument slice (excluding argv[0]) and returns the semantic
// exit code. Errors are printed to streams.Stderr.
func Run(ctx context.Context, args []string, streams Streams) int {
	streams = streams.withDefaults()
	base, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(streams.Stderr, "compilerun: %v\n", err)
		return ExitInternalError
	}
	return runFrom(ctx, args, streams, base)
}

func runFrom(ctx context.Context, args []string, streams Streams, base string) int {
	a := &app{streams: streams.withDefaults(), base: base}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(a.streams.Stdout)
	root.SetErr(a.streams.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		a.fail(err)
		return ExitInvalidInvocation
	}
	a.fail(a.err)
	return a.exitCode
}
