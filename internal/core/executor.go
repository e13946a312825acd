package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Shell-compatible statuses for processes that never ran.
const (
	ExitNotExecutable = 126
	ExitNotFound      = 127
	signalExitBase    = 128
)

// ExecutionResult contains the outcome of a single process invocation.
type ExecutionResult struct {
	// ExitCode is the status a POSIX shell would report in $?.
	// 0 indicates success, non-zero indicates failure.
	ExitCode int

	// Launched reports whether the process was actually started.
	Launched bool

	// Duration is the wall time between start and exit.
	Duration time.Duration

	// Err is set when the process could not be launched or was cancelled.
	// A plain non-zero exit leaves Err nil.
	Err error
}

// Succeeded reports whether the process ran and exited 0.
func (r ExecutionResult) Succeeded() bool {
	return r.Launched && r.Err == nil && r.ExitCode == 0
}

// Runner executes a Command to completion.
//
// Implementations must not return until the process has exited.
type Runner interface {
	Run(ctx context.Context, cmd Command) ExecutionResult
}

// Executor runs commands as child processes of the driver.
type Executor struct {
	// Stdout and Stderr receive the child's output streams.
	// Nil discards the stream.
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecutor creates an Executor streaming child output to the given writers.
func NewExecutor(stdout, stderr io.Writer) *Executor {
	return &Executor{Stdout: stdout, Stderr: stderr}
}

// Run executes cmd synchronously.
//
// The child inherits the host environment plus cmd.Env and runs in its own
// process group so that cancellation can kill everything it spawned.
// Stdin is not connected.
func (e *Executor) Run(ctx context.Context, cmd Command) ExecutionResult {
	if ctx == nil {
		ctx = context.Background()
	}
	if cmd.Path == "" {
		return ExecutionResult{ExitCode: ExitNotFound, Err: errors.New("command path is empty")}
	}
	if err := ctx.Err(); err != nil {
		return ExecutionResult{
			ExitCode: signalExitBase + int(syscall.SIGKILL),
			Err:      fmt.Errorf("execution cancelled: %w", err),
		}
	}

	// Cancellation is handled below so that the whole group is killed,
	// not only the leader.
	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.envPairs()...)
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Stdout = e.Stdout
	c.Stderr = e.Stderr

	start := time.Now()
	if err := c.Start(); err != nil {
		return ExecutionResult{
			ExitCode: launchFailureStatus(err),
			Err:      fmt.Errorf("failed to start %s: %w", cmd.Path, err),
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		// Kill the whole group (negative PID), then reap.
		if c.Process != nil {
			_ = syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return ExecutionResult{
			ExitCode: signalExitBase + int(syscall.SIGKILL),
			Launched: true,
			Duration: time.Since(start),
			Err:      fmt.Errorf("execution cancelled: %w", ctx.Err()),
		}
	case err = <-done:
	}

	res := ExecutionResult{Launched: true, Duration: time.Since(start)}
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// Wait failed for a reason other than the exit status (e.g. copying output).
		res.ExitCode = 1
		res.Err = fmt.Errorf("waiting for %s: %w", cmd.Path, err)
		return res
	}
	res.ExitCode = exitStatus(exitErr)
	return res
}

// exitStatus maps a process exit to the value of a shell's $?.
func exitStatus(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return signalExitBase + int(ws.Signal())
	}
	return exitErr.ExitCode()
}

// launchFailureStatus maps a start error to 126 (found but not runnable)
// or 127 (not found), mirroring shell behavior.
func launchFailureStatus(err error) int {
	switch {
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.ENOEXEC), errors.Is(err, syscall.EISDIR):
		return ExitNotExecutable
	default:
		return ExitNotFound
	}
}
