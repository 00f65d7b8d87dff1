package metrics

import "errors"

// MultiSink fans events out to several sinks. Every sink receives the event;
// errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the run to all sinks.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordLoad forwards load to the sinks that record it.
func (m *MultiSink) RecordLoad(ev LoadEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(LoadRecorder); ok {
			if err := rec.RecordLoad(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordFailure forwards failures to the sinks that record them.
func (m *MultiSink) RecordFailure(ev FailureEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(FailureRecorder); ok {
			if err := rec.RecordFailure(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
