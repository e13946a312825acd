// Package pipeline sequences the stages that take a language implementation
// from source to a reported native exit status.
//
// # Stages
//
// A plan is an ordered list of stages, executed strictly one at a time:
//
//  1. bootstrap-build: run the project's build procedure.
//  2. run-implementation: run the freshly built implementation, which emits
//     the intermediate artifact.
//  3. native-compile: compile the artifact with the native backend (build mode only).
//  4. execute: run the native binary and report its exit status (build mode only).
//
// Stages communicate only through files and exit statuses; the driver never
// reads the artifact.
//
// # Failure Policy
//
// Under PolicyContinue every stage runs regardless of earlier failures and
// the run ends in DONE. Under PolicyFailFast a failing stage other than the
// last moves the run to ABORTED and the remaining stages are recorded as
// skipped.
package pipeline
