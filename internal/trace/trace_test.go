package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bootstrapEvents() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Kind: EventStageStarted, Stage: "bootstrap-build"},
		{Seq: 2, Kind: EventStageSucceeded, Stage: "bootstrap-build", ExitCode: Code(0)},
		{Seq: 3, Kind: EventStageStarted, Stage: "run-implementation"},
		{Seq: 4, Kind: EventStageFailed, Stage: "run-implementation", ExitCode: Code(127), Reason: "LaunchFailed"},
	}
}

func TestCanonicalJSON_FixedFieldOrder(t *testing.T) {
	tr := ExecutionTrace{PlanHash: "plan-abc", Events: bootstrapEvents()[:2]}

	b, err := tr.CanonicalJSON()
	require.NoError(t, err)

	expected := `{"planHash":"plan-abc","events":[` +
		`{"seq":1,"kind":"StageStarted","stage":"bootstrap-build"},` +
		`{"seq":2,"kind":"StageSucceeded","stage":"bootstrap-build","exitCode":0}]}`
	assert.Equal(t, expected, string(b))
}

func TestCanonicalJSON_SortsBySeqWithoutMutatingCaller(t *testing.T) {
	ev := bootstrapEvents()
	shuffled := []TraceEvent{ev[3], ev[1], ev[0], ev[2]}
	tr1 := ExecutionTrace{PlanHash: "p", Events: ev}
	tr2 := ExecutionTrace{PlanHash: "p", Events: shuffled}

	b1, err := tr1.CanonicalJSON()
	require.NoError(t, err)
	b2, err := tr2.CanonicalJSON()
	require.NoError(t, err)

	assert.Equal(t, string(b1), string(b2))
	assert.Equal(t, 4, shuffled[0].Seq, "caller slice must not be reordered")
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := ExecutionTrace{PlanHash: "p", Events: bootstrapEvents()}.Hash()
	require.NoError(t, err)
	h2, err := ExecutionTrace{PlanHash: "p", Events: bootstrapEvents()}.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	other := bootstrapEvents()
	other[3].ExitCode = Code(1)
	h3, err := ExecutionTrace{PlanHash: "p", Events: other}.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		trace ExecutionTrace
		want  string
	}{
		{"missing plan hash", ExecutionTrace{}, "planHash is required"},
		{"missing stage", ExecutionTrace{PlanHash: "p", Events: []TraceEvent{{Seq: 1, Kind: EventStageStarted}}}, "stage is required"},
		{"zero seq", ExecutionTrace{PlanHash: "p", Events: []TraceEvent{{Kind: EventStageStarted, Stage: "x"}}}, "seq must be positive"},
		{"duplicate seq", ExecutionTrace{PlanHash: "p", Events: []TraceEvent{
			{Seq: 1, Kind: EventStageStarted, Stage: "x"},
			{Seq: 1, Kind: EventStageStarted, Stage: "y"},
		}}, "duplicated"},
		{"missing exit code", ExecutionTrace{PlanHash: "p", Events: []TraceEvent{{Seq: 1, Kind: EventExitReported, Stage: "execute"}}}, "exitCode is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trace.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRecorder_AssignsSequenceInArrivalOrder(t *testing.T) {
	r := NewRecorder()
	SafeRecord(r, TraceEvent{Kind: EventStageStarted, Stage: "bootstrap-build"})
	SafeRecord(r, TraceEvent{Kind: EventStageSkipped, Stage: "native-compile", Reason: "Aborted"})

	tr := r.Trace("p")
	require.Len(t, tr.Events, 2)
	assert.Equal(t, 1, tr.Events[0].Seq)
	assert.Equal(t, 2, tr.Events[1].Seq)
	require.NoError(t, tr.Validate())
}

type panickingSink struct{}

func (panickingSink) Record(TraceEvent) { panic("boom") }

func TestSafeRecord_IsInert(t *testing.T) {
	assert.NotPanics(t, func() {
		SafeRecord(nil, TraceEvent{})
		SafeRecord(panickingSink{}, TraceEvent{Kind: EventStageStarted})
		SafeRecord(NopSink{}, TraceEvent{Kind: EventStageStarted})
	})
}

func TestWriteFile_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "run.json")
	require.NoError(t, WriteFile(path, ExecutionTrace{PlanHash: "p", Events: bootstrapEvents()[:1]}))
	require.NoError(t, WriteFile(path, ExecutionTrace{PlanHash: "q", Events: bootstrapEvents()[:1]}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"planHash":"q"`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFile_RejectsInvalidTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.Error(t, WriteFile(path, ExecutionTrace{}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
