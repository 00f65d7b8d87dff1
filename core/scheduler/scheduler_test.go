package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/oncall/core/errs"
	"github.com/kilianp07/oncall/core/events"
	"github.com/kilianp07/oncall/core/flow"
	"github.com/kilianp07/oncall/core/history"
	"github.com/kilianp07/oncall/core/model"
	"github.com/kilianp07/oncall/core/monitoring"
	"github.com/kilianp07/oncall/internal/eventbus"
)

func newTestScheduler(t *testing.T, cfg Config, opts ...Option) (*Scheduler, *history.MemoryStore, <-chan events.RunEvent) {
	t.Helper()
	store := history.NewMemoryStore()
	bus := eventbus.New[events.RunEvent](eventbus.WithBuffer(32))
	t.Cleanup(bus.Close)
	sub := bus.Subscribe()
	n := 0
	base := []Option{
		WithStore(store),
		WithBus(bus),
		WithIDs(func() string { n++; return fmt.Sprintf("run-%d", n) }),
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }),
	}
	s, err := New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	return s, store, sub
}

func drain(ch <-chan events.RunEvent) []events.RunEvent {
	var out []events.RunEvent
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func team(n int) []model.Resident {
	rs := make([]model.Resident, n)
	for i := range rs {
		rs[i] = model.Resident{ID: fmt.Sprintf("r%d", i+1), WeeklyHourCap: 80, BiYearlyHourCap: 600}
	}
	return rs
}

func TestRunFeasible(t *testing.T) {
	s, store, sub := newTestScheduler(t, Config{})
	run, err := s.Run(context.Background(), Request{Year: 2025, Residents: team(4)}, "test")
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, 2025, run.Year)
	assert.Equal(t, 42, run.Window.Len())
	assert.False(t, run.Result.Infeasible)
	assert.EqualValues(t, 42, run.Result.TotalFlow)
	assert.Len(t, run.Result.Assignments, 42)

	evs := drain(sub)
	require.Len(t, evs, 2)
	assert.Equal(t, events.RunStarted, evs[0].Kind)
	assert.Equal(t, events.RunCompleted, evs[1].Kind)
	assert.Equal(t, 42, evs[1].CallDays)
	assert.Equal(t, 4, evs[1].Residents)

	rec, err := store.Get(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, history.StatusFeasible, rec.Status)
	assert.Equal(t, "test", rec.Source)
	assert.Len(t, rec.Assignments, 42)
}

func TestRunInfeasibleIsNotAnError(t *testing.T) {
	s, store, sub := newTestScheduler(t, Config{Year: 2025})
	// one resident with 5 calls of budget cannot cover 42 days
	req := Request{Residents: []model.Resident{{ID: "solo", WeeklyHourCap: 80, BiYearlyHourCap: 60}}}
	run, err := s.Run(context.Background(), req, "")
	require.NoError(t, err)
	assert.True(t, run.Result.Infeasible)
	assert.EqualValues(t, 5, run.Result.TotalFlow)
	assert.Len(t, run.Result.Unmet, 37)

	evs := drain(sub)
	require.Len(t, evs, 2)
	assert.True(t, evs[1].Infeasible)
	rec, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, history.StatusInfeasible, rec.Status)
	assert.Len(t, rec.UnmetDays, 37)
}

func TestRunFailures(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		kind string
	}{
		{"year out of range", Request{Year: 1492, Residents: team(1)}, events.FailureConfiguration},
		{"duplicate residents", Request{Year: 2025, Residents: append(team(1), team(1)...)}, events.FailureValidation},
		{"negative cap", Request{Year: 2025, Residents: []model.Resident{{ID: "x", WeeklyHourCap: -4}}}, events.FailureConfiguration},
		{"bad staffing key", Request{Year: 2025, Residents: team(1), Staffing: map[string]int{"monday": 1}}, events.FailureValidation},
		{"negative staffing", Request{Year: 2025, Residents: team(1), Staffing: map[string]int{"sunday": -1}}, events.FailureValidation},
		{"bad time off date", Request{Year: 2025, Residents: team(1), TimeOff: map[string][]TimeOff{"r1": {{Start: "July 4", End: "2025-07-05"}}}}, events.FailureValidation},
		{"missing time off end", Request{Year: 2025, Residents: team(1), TimeOff: map[string][]TimeOff{"r1": {{Start: "2025-07-04"}}}}, events.FailureValidation},
		{"eligibility outside window", Request{Year: 2025, Residents: team(1), Eligibility: map[string][]string{"r1": {"2025-09-02"}}}, events.FailureValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, store, sub := newTestScheduler(t, Config{})
			run, err := s.Run(context.Background(), tc.req, "")
			require.Error(t, err)
			assert.Nil(t, run)
			assert.Equal(t, tc.kind, FailureKind(err))

			evs := drain(sub)
			require.Len(t, evs, 2)
			assert.Equal(t, events.RunFailed, evs[1].Kind)
			assert.Equal(t, tc.kind, evs[1].FailureKind)
			recs, err := store.Query(context.Background(), history.Query{Status: history.StatusFailed})
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.NotEmpty(t, recs[0].Error)
		})
	}
}

func TestRunAbortedByPhaseCap(t *testing.T) {
	s, store, _ := newTestScheduler(t, Config{MaxPhases: 1})
	// r1 has a single call and grabs 07-05 first; covering 07-06 too needs a
	// second phase that reroutes r1 through the residual graph.
	req := Request{
		Year: 2025,
		Residents: []model.Resident{
			{ID: "r1", WeeklyHourCap: 80, BiYearlyHourCap: 12},
			{ID: "r2", WeeklyHourCap: 80, BiYearlyHourCap: 600},
		},
		Eligibility: map[string][]string{
			"r1": {"2025-07-05", "2025-07-06"},
			"r2": {"2025-07-05"},
		},
	}
	_, err := s.Run(context.Background(), req, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, flow.ErrSolveAborted))
	assert.Equal(t, events.FailureAborted, FailureKind(err))
	recs, qerr := store.Query(context.Background(), history.Query{})
	require.NoError(t, qerr)
	require.Len(t, recs, 1)

	s2, _, _ := newTestScheduler(t, Config{MaxPhases: 2})
	run, err := s2.Run(context.Background(), req, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, run.Result.TotalFlow)
}

func TestRunCancelledContext(t *testing.T) {
	s, store, _ := newTestScheduler(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Run(ctx, Request{Year: 2025, Residents: team(2)}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, flow.ErrSolveAborted))
	recs, err := store.Query(context.Background(), history.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 1, "aborted runs are still recorded")
}

type captureMonitor struct{ errs []error }

func (c *captureMonitor) CaptureException(err error, _ map[string]string) {
	c.errs = append(c.errs, err)
}
func (c *captureMonitor) CapturePanic(any)    {}
func (c *captureMonitor) Flush(time.Duration) {}

func TestFailureKindInternalGoesToMonitoring(t *testing.T) {
	mon := &captureMonitor{}
	monitoring.Init(mon)
	defer monitoring.Init(nil)

	assert.Equal(t, events.FailureInternal, FailureKind(errors.New("disk on fire")))
	assert.Equal(t, events.FailureValidation, FailureKind(errs.Validation("x", "y", "z")))

	s, _, _ := newTestScheduler(t, Config{})
	_, err := s.Run(context.Background(), Request{Year: 1492}, "")
	require.Error(t, err)
	assert.Empty(t, mon.errs, "configuration errors are not reported to monitoring")
}

func TestTimeOffAndEligibilityApplied(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})
	req := Request{
		Year:      2025,
		Residents: team(2),
		TimeOff:   map[string][]TimeOff{"r1": {{Start: "2025-07-01", End: "2025-07-31"}}},
		Eligibility: map[string][]string{
			"r1": {"2025-07-05", "2025-08-02"},
			"r2": {"2025-07-05"},
		},
	}
	run, err := s.Run(context.Background(), req, "")
	require.NoError(t, err)
	got := map[string]string{}
	for _, a := range run.Result.Assignments {
		got[a.CallDayID] = a.ResidentID
	}
	assert.Equal(t, map[string]string{"2025-07-05": "r2", "2025-08-02": "r1"}, got)
	assert.True(t, run.Result.Infeasible)
}

func TestRequestDefaultsFromConfig(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{Year: 2025, HoursPerCall: 24, Staffing: map[string]int{"saturday": 2}})
	run, err := s.Run(context.Background(), Request{Residents: team(3)}, "")
	require.NoError(t, err)
	assert.Equal(t, 2025, run.Year)
	// 9 Saturdays need 2 each on top of the 33 other days
	assert.EqualValues(t, 33+18, run.Result.Required)
	// 600 hours at 24 per call gives 25 calls each
	assert.Equal(t, 25, run.Result.Budget["r1"])
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{MaxPhases: -1})
	assert.True(t, errs.IsConfiguration(err))
	_, err = New(Config{Staffing: map[string]int{"sunday": -1}})
	assert.True(t, errs.IsValidation(err))
	_, err = New(Config{HoursPerCall: -12})
	assert.True(t, strings.Contains(err.Error(), "hours_per_call"))
}
