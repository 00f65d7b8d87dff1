package metrics

import "time"

// RunEvent summarises one completed scheduling run.
type RunEvent struct {
	RunID         string
	Source        string
	Year          int
	Residents     int
	CallDays      int
	Required      int64
	TotalFlow     int64
	Infeasible    bool
	UnmetDays     int
	Phases        int
	Augmentations int
	LoadMean      float64
	LoadStdDev    float64
	Duration      time.Duration
	Time          time.Time
}

// Coverage is the staffed fraction of the run's demand.
func (e RunEvent) Coverage() float64 {
	if e.Required == 0 {
		return 1
	}
	return float64(e.TotalFlow) / float64(e.Required)
}

// MetricsSink records scheduling runs for observability purposes.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// LoadEvent carries the calls assigned to each resident in one run.
type LoadEvent struct {
	RunID string
	Year  int
	Load  map[string]int
	Time  time.Time
}

// LoadRecorder records per-resident load.
type LoadRecorder interface {
	RecordLoad(ev LoadEvent) error
}

// FailureEvent describes a run that produced no schedule.
type FailureEvent struct {
	RunID  string
	Source string
	// Kind is one of validation, configuration, aborted or internal.
	Kind  string
	Error string
	Time  time.Time
}

// FailureRecorder records failed runs.
type FailureRecorder interface {
	RecordFailure(ev FailureEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error         { return nil }
func (NopSink) RecordLoad(LoadEvent) error       { return nil }
func (NopSink) RecordFailure(FailureEvent) error { return nil }
