package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	runs, loads, failures int
	err                   error
}

func (r *recordSink) RecordRun(RunEvent) error {
	r.runs++
	return r.err
}

func (r *recordSink) RecordLoad(LoadEvent) error {
	r.loads++
	return nil
}

func (r *recordSink) RecordFailure(FailureEvent) error {
	r.failures++
	return nil
}

type runOnly struct{ runs int }

func (r *runOnly) RecordRun(RunEvent) error {
	r.runs++
	return nil
}

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &runOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordRun(RunEvent{RunID: "r"}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := m.RecordLoad(LoadEvent{}); err != nil {
		t.Fatalf("record load: %v", err)
	}
	if err := m.RecordFailure(FailureEvent{}); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if s1.runs != 1 || s1.loads != 1 || s1.failures != 1 || s2.runs != 1 {
		t.Fatalf("events not forwarded: %+v %+v", s1, s2)
	}
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordSink{}
	m := NewMultiSink(&recordSink{err: boom}, ok)
	err := m.RecordRun(RunEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ok.runs != 1 {
		t.Fatalf("later sink skipped after error")
	}
}

func TestRunEventCoverage(t *testing.T) {
	if c := (RunEvent{Required: 4, TotalFlow: 3}).Coverage(); c != 0.75 {
		t.Fatalf("coverage %v", c)
	}
	if c := (RunEvent{}).Coverage(); c != 1 {
		t.Fatalf("empty coverage %v", c)
	}
}
