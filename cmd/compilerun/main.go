package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"compilerun/internal/cli"
)

// main cancels the running stage on SIGINT/SIGTERM; the stage's process
// group is killed and the pipeline records it as interrupted.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], cli.Streams{Stdout: os.Stdout, Stderr: os.Stderr})
	stop()
	os.Exit(code)
}
