package trace

import "sync"

// Sink is the minimal interface the pipeline driver depends on.
//
// Record must be inert: it must not panic and cannot fail.
// The caller must assume Record may be a no-op.
type Sink interface {
	Record(event TraceEvent)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Record(TraceEvent) {}

// SafeRecord records an event and guarantees inertness even if the sink is buggy.
// It intentionally swallows panics.
func SafeRecord(s Sink, event TraceEvent) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(event)
}

// Recorder is a concurrency-safe in-memory collector.
// Events without a Seq are numbered in arrival order.
type Recorder struct {
	mu     sync.Mutex
	events []TraceEvent
	next   int
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(event TraceEvent) {
	if r == nil {
		return
	}
	defer func() {
		_ = recover()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	if event.Seq == 0 {
		event.Seq = r.next
	}
	r.events = append(r.events, event)
}

// Snapshot returns a point-in-time copy of all recorded events.
func (r *Recorder) Snapshot() []TraceEvent {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Trace builds an ExecutionTrace from the currently recorded events.
// The returned trace is independent from the recorder (events are copied).
func (r *Recorder) Trace(planHash string) ExecutionTrace {
	tr := ExecutionTrace{PlanHash: planHash}
	tr.Events = r.Snapshot()
	tr.Canonicalize()
	return tr
}
