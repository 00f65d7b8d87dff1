package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/oncall/core/calendar"
	"github.com/kilianp07/oncall/core/events"
	"github.com/kilianp07/oncall/core/history"
	"github.com/kilianp07/oncall/core/scheduler"
	"github.com/kilianp07/oncall/infra/logger"
	"github.com/kilianp07/oncall/infra/metrics"
	"github.com/kilianp07/oncall/internal/eventbus"
)

//nolint:gocyclo
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(metrics.PromConfig{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	bus := eventbus.New[events.RunEvent]()
	done := metrics.StartEventCollector(context.Background(), bus, sink, logger.NopLogger{})
	store := history.NewMemoryStore()

	opts := []scheduler.Option{scheduler.WithBus(bus), scheduler.WithStore(store), scheduler.WithLogger(logger.NopLogger{})}
	if sc.Calendar != nil {
		rules, err := sc.Calendar.Rules()
		if err != nil {
			t.Fatalf("calendar: %v", err)
		}
		gen, err := calendar.NewGenerator(rules)
		if err != nil {
			t.Fatalf("generator: %v", err)
		}
		opts = append(opts, scheduler.WithGenerator(gen))
	}
	s, err := scheduler.New(sc.Config, opts...)
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}

	run, runErr := s.Run(context.Background(), sc.Request, "scenario:"+sc.Name)
	bus.Close()
	<-done

	recs, err := store.Query(context.Background(), history.Query{})
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected one history record, got %d (%v)", len(recs), err)
	}

	if sc.Expected.ErrorKind != "" {
		if runErr == nil {
			t.Fatalf("scenario %s expected %s failure, got success", sc.Name, sc.Expected.ErrorKind)
		}
		if got := scheduler.FailureKind(runErr); got != sc.Expected.ErrorKind {
			t.Errorf("scenario %s expected %s failure, got %s: %v", sc.Name, sc.Expected.ErrorKind, got, runErr)
		}
		if recs[0].Status != history.StatusFailed {
			t.Errorf("history status %s, want failed", recs[0].Status)
		}
		if n := value(t, reg, "oncall_run_failures_total"); n != 1 {
			t.Errorf("failure counter %v, want 1", n)
		}
		return
	}
	if runErr != nil {
		t.Fatalf("scenario %s: %v", sc.Name, runErr)
	}

	res := run.Result
	if res.TotalFlow != sc.Expected.TotalFlow {
		t.Errorf("scenario %s expected flow %d, got %d", sc.Name, sc.Expected.TotalFlow, res.TotalFlow)
	}
	if res.Infeasible != sc.Expected.Infeasible {
		t.Errorf("scenario %s expected infeasible=%v", sc.Name, sc.Expected.Infeasible)
	}
	unmet := make([]string, 0, len(res.Unmet))
	for _, u := range res.Unmet {
		unmet = append(unmet, u.Day.ID())
	}
	switch {
	case len(sc.Expected.Unmet) > 0:
		if !equal(unmet, sc.Expected.Unmet) {
			t.Errorf("scenario %s expected unmet %v, got %v", sc.Name, sc.Expected.Unmet, unmet)
		}
	case !sc.Expected.Infeasible && len(unmet) > 0:
		t.Errorf("scenario %s expected full coverage, unmet %v", sc.Name, unmet)
	}
	for id, max := range sc.Expected.MaxLoad {
		if res.Load[id] > max {
			t.Errorf("scenario %s: resident %s has %d calls, limit %d", sc.Name, id, res.Load[id], max)
		}
	}
	if got := value(t, reg, "oncall_last_run_unmet_days"); int(got) != len(unmet) {
		t.Errorf("unmet gauge %v, want %d", got, len(unmet))
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// value sums every sample of a counter or gauge family.
func value(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	mfs, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sum float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				sum += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				sum += m.GetGauge().GetValue()
			}
		}
	}
	return sum
}
