// Package trace records what a pipeline run did, stage by stage.
package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ExecutionTrace is the ordered record of one pipeline run.
//
// PlanHash identifies the stage plan (commands and mode) that was executed.
// Events are ordered by Seq, which the producer assigns in execution order.
// The trace carries no timestamps or durations, so two runs of the same plan
// with the same outcomes produce identical bytes.
type ExecutionTrace struct {
	PlanHash string
	Events   []TraceEvent
}

// TraceEventKind is the stable discriminator for TraceEvent.
// The string values are part of the trace's canonical bytes; do not rename.
type TraceEventKind string

const (
	EventStageStarted   TraceEventKind = "StageStarted"
	EventStageSucceeded TraceEventKind = "StageSucceeded"
	EventStageFailed    TraceEventKind = "StageFailed"
	EventStageSkipped   TraceEventKind = "StageSkipped"
	EventExitReported   TraceEventKind = "ExitReported"
)

// TraceEvent is a single stage transition.
type TraceEvent struct {
	// Seq orders events within a run. Starts at 1.
	Seq int

	Kind TraceEventKind

	// Stage is the stage kind this event refers to.
	Stage string

	// ExitCode is set for StageSucceeded, StageFailed and ExitReported.
	ExitCode *int

	// Reason is a stable reason code (e.g. "NonZeroExit", "LaunchFailed", "Aborted").
	Reason string
}

// Code is a helper for populating TraceEvent.ExitCode.
func Code(c int) *int { return &c }

// Validate checks basic invariants and returns a descriptive error.
func (t *ExecutionTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.PlanHash == "" {
		return errors.New("planHash is required")
	}
	seen := make(map[int]bool, len(t.Events))
	for i := range t.Events {
		e := t.Events[i]
		if e.Kind == "" {
			return fmt.Errorf("events[%d].kind is required", i)
		}
		if e.Stage == "" {
			return fmt.Errorf("events[%d].stage is required", i)
		}
		if e.Seq <= 0 {
			return fmt.Errorf("events[%d].seq must be positive", i)
		}
		if seen[e.Seq] {
			return fmt.Errorf("events[%d].seq %d is duplicated", i, e.Seq)
		}
		seen[e.Seq] = true
		if needsExitCode(e.Kind) && e.ExitCode == nil {
			return fmt.Errorf("events[%d].exitCode is required for kind %q", i, e.Kind)
		}
	}
	return nil
}

func needsExitCode(kind TraceEventKind) bool {
	switch kind {
	case EventStageSucceeded, EventStageFailed, EventExitReported:
		return true
	default:
		return false
	}
}

// Canonicalize sorts events by Seq.
func (t *ExecutionTrace) Canonicalize() {
	if t == nil {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		return t.Events[i].Seq < t.Events[j].Seq
	})
}

// CanonicalJSON returns the canonical JSON encoding of the trace.
// It canonicalizes a copy of the trace to avoid mutating the caller's slice.
func (t ExecutionTrace) CanonicalJSON() ([]byte, error) {
	copyTrace := ExecutionTrace{PlanHash: t.PlanHash}
	copyTrace.Events = make([]TraceEvent, len(t.Events))
	copy(copyTrace.Events, t.Events)
	copyTrace.Canonicalize()
	if err := copyTrace.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&copyTrace)
}

// Hash returns the sha256 hex digest of the canonical JSON bytes.
func (t ExecutionTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// MarshalJSON fixes field order.
func (t ExecutionTrace) MarshalJSON() ([]byte, error) {
	if t.PlanHash == "" {
		return nil, errors.New("planHash is required")
	}
	var buf bytes.Buffer
	buf.WriteString(`{"planHash":`)
	ph, _ := json.Marshal(t.PlanHash)
	buf.Write(ph)

	buf.WriteString(`,"events":[`)
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// MarshalJSON fixes field order and omits empty optional fields.
func (e TraceEvent) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"seq":%d`, e.Seq)

	kb, _ := json.Marshal(string(e.Kind))
	buf.WriteString(`,"kind":`)
	buf.Write(kb)

	sb, _ := json.Marshal(e.Stage)
	buf.WriteString(`,"stage":`)
	buf.Write(sb)

	if e.ExitCode != nil {
		fmt.Fprintf(&buf, `,"exitCode":%d`, *e.ExitCode)
	}

	if e.Reason != "" {
		rb, _ := json.Marshal(e.Reason)
		buf.WriteString(`,"reason":`)
		buf.Write(rb)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
