package ingest

import (
	"errors"
	"testing"
)

type call struct {
	agentID, skillID string
	execSeconds      float64
	success          bool
	cpuPct, memMB    float64
}

type fakeRecorder struct {
	calls []call
	err   error
}

func (f *fakeRecorder) RecordUsage(agentID, skillID string, execSeconds float64, success bool, cpuPct, memMB float64) error {
	f.calls = append(f.calls, call{agentID, skillID, execSeconds, success, cpuPct, memMB})
	return f.err
}

func TestHandleValidReport(t *testing.T) {
	sink := &fakeRecorder{}
	c := NewConsumer("localhost:9092", "skill-usage", "arena-ingest", sink)

	c.handle([]byte(`{"agent_id":"agent-1","skill_id":"skill-a","exec_seconds":1.8,"success":true,"cpu_pct":22.5,"mem_mb":96}`))

	if len(sink.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(sink.calls))
	}
	got := sink.calls[0]
	want := call{"agent-1", "skill-a", 1.8, true, 22.5, 96}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestHandleSkipsMalformedPayload(t *testing.T) {
	sink := &fakeRecorder{}
	c := NewConsumer("localhost:9092", "skill-usage", "arena-ingest", sink)

	c.handle([]byte(`not json`))
	c.handle([]byte(`{"agent_id": 42}`))

	if len(sink.calls) != 0 {
		t.Fatalf("malformed payloads reached the sink: %d calls", len(sink.calls))
	}
}

func TestHandleSurvivesSinkError(t *testing.T) {
	sink := &fakeRecorder{err: errors.New("db locked")}
	c := NewConsumer("localhost:9092", "skill-usage", "arena-ingest", sink)

	// Errors are logged and dropped; handle must not panic or retry.
	c.handle([]byte(`{"agent_id":"agent-1","skill_id":"skill-a","exec_seconds":1,"success":false,"cpu_pct":1,"mem_mb":1}`))
	c.handle([]byte(`{"agent_id":"agent-1","skill_id":"skill-a","exec_seconds":1,"success":false,"cpu_pct":1,"mem_mb":1}`))

	if len(sink.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(sink.calls))
	}
}

func TestCloseWithoutStart(t *testing.T) {
	c := NewConsumer("localhost:9092", "skill-usage", "arena-ingest", &fakeRecorder{})
	if err := c.Close(); err != nil {
		t.Fatalf("close before start: %v", err)
	}
}
