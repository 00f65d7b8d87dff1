package metrics

import (
	"context"

	"github.com/kilianp07/oncall/core/events"
	coremetrics "github.com/kilianp07/oncall/core/metrics"
	"github.com/kilianp07/oncall/infra/logger"
	"github.com/kilianp07/oncall/internal/eventbus"
)

// StartEventCollector subscribes to the run bus and records metrics for
// completed and failed runs. It stops when the context is canceled or the
// bus is closed; the returned channel is closed once it has stopped.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.RunEvent], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := Record(sink, ev); err != nil {
					log.Warnf("record %s event for run %s: %v", ev.Kind, ev.RunID, err)
				}
			}
		}
	}()
	return done
}

// Record translates one run event into sink calls.
func Record(sink coremetrics.MetricsSink, ev events.RunEvent) error {
	switch ev.Kind {
	case events.RunCompleted:
		if err := sink.RecordRun(coremetrics.RunEvent{
			RunID:         ev.RunID,
			Source:        ev.Source,
			Year:          ev.Year,
			Residents:     ev.Residents,
			CallDays:      ev.CallDays,
			Required:      ev.Required,
			TotalFlow:     ev.TotalFlow,
			Infeasible:    ev.Infeasible,
			UnmetDays:     ev.UnmetDays,
			Phases:        ev.Phases,
			Augmentations: ev.Augmentations,
			LoadMean:      ev.LoadMean,
			LoadStdDev:    ev.LoadStdDev,
			Duration:      ev.Duration,
			Time:          ev.Time,
		}); err != nil {
			return err
		}
		if r, ok := sink.(coremetrics.LoadRecorder); ok && len(ev.Load) > 0 {
			return r.RecordLoad(coremetrics.LoadEvent{RunID: ev.RunID, Year: ev.Year, Load: ev.Load, Time: ev.Time})
		}
	case events.RunFailed:
		if r, ok := sink.(coremetrics.FailureRecorder); ok {
			msg := ""
			if ev.Err != nil {
				msg = ev.Err.Error()
			}
			return r.RecordFailure(coremetrics.FailureEvent{
				RunID: ev.RunID, Source: ev.Source, Kind: ev.FailureKind, Error: msg, Time: ev.Time,
			})
		}
	}
	return nil
}
