package events

import "time"

// Kind names a run lifecycle step.
type Kind string

const (
	RunStarted   Kind = "started"
	RunCompleted Kind = "completed"
	RunFailed    Kind = "failed"
)

// Failure kinds carried by RunFailed events.
const (
	FailureValidation    = "validation"
	FailureConfiguration = "configuration"
	FailureAborted       = "aborted"
	FailureInternal      = "internal"
)

// RunEvent is published at each step of a scheduling run. Fields beyond the
// identity are filled once they are known.
type RunEvent struct {
	Kind   Kind
	RunID  string
	Source string
	Year   int
	Time   time.Time

	Residents     int
	CallDays      int
	Required      int64
	TotalFlow     int64
	Infeasible    bool
	UnmetDays     int
	Phases        int
	Augmentations int
	Load          map[string]int
	LoadMean      float64
	LoadStdDev    float64
	Duration      time.Duration

	// FailureKind and Err are set on RunFailed.
	FailureKind string
	Err         error
}
