// Package core runs the external processes that make up a toolchain pipeline.
//
// # Execution Model
//
// Every stage of a pipeline is a single synchronous process invocation:
//
//  1. The command is spawned in its own process group.
//  2. Its stdout/stderr are streamed to the driver's writers.
//  3. The driver blocks until the process exits or the context is cancelled.
//
// A non-zero exit status is a result, not an error. Launch failures are
// folded into the same result shape using the status a POSIX shell would
// report (127 not found, 126 not executable), so callers see a single
// failure category.
//
// # Core Types
//
// Command: one external invocation (path, arguments, directory, extra env).
// ExecutionResult: exit status and launch outcome of a Command.
// Artifact: an observed file on disk (existence, size, digest).
package core
