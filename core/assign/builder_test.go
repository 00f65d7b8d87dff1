package assign_test

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/oncall/core/assign"
	"github.com/kilianp07/oncall/core/calendar"
	"github.com/kilianp07/oncall/core/errs"
	"github.com/kilianp07/oncall/core/flow"
	"github.com/kilianp07/oncall/core/model"
)

// saturdays returns a window holding only the Saturdays of August 2025 on or
// after startDay.
func saturdays(t *testing.T, startDay int) *calendar.Window {
	t.Helper()
	g, err := calendar.NewGenerator(calendar.Rules{
		StartMonth: time.August,
		StartDay:   startDay,
		EndMonth:   time.September,
		Anchor:     time.Saturday,
		Classify:   map[time.Weekday]model.CallType{time.Saturday: model.CallSaturday},
		MinYear:    2000,
		MaxYear:    2100,
	})
	require.NoError(t, err)
	w, err := g.Generate(2025)
	require.NoError(t, err)
	return w
}

func residents(ids ...string) []model.Resident {
	out := make([]model.Resident, len(ids))
	for i, id := range ids {
		out[i] = model.Resident{ID: id, WeeklyHourCap: 80, BiYearlyHourCap: 1000}
	}
	return out
}

func TestTwoResidentsThreeDays(t *testing.T) {
	w := saturdays(t, 10)
	require.Equal(t, 3, w.Len())

	res, err := assign.NewBuilder(nil).Assign(context.Background(), assign.Problem{
		Residents: residents("a", "b"),
		Window:    w,
		Capacity:  assign.FixedSlots{"a": 3, "b": 1},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.TotalFlow)
	assert.EqualValues(t, 3, res.Required)
	assert.False(t, res.Infeasible)
	assert.Empty(t, res.Unmet)
	assert.Len(t, res.Assignments, 3)
	assert.LessOrEqual(t, res.Load["a"], 3)
	assert.LessOrEqual(t, res.Load["b"], 1)
	assert.Equal(t, 3, res.Load["a"]+res.Load["b"])
	assert.InDelta(t, 1.0, res.Coverage(), 1e-9)

	covered := map[string]bool{}
	for _, a := range res.Assignments {
		covered[a.CallDayID] = true
		assert.Equal(t, model.CallSaturday, a.CallType)
	}
	assert.Equal(t, map[string]bool{"2025-08-16": true, "2025-08-23": true, "2025-08-30": true}, covered)
}

func TestPartialEligibilityLeavesDayUnmet(t *testing.T) {
	w := saturdays(t, 17)
	require.Equal(t, 2, w.Len())

	res, err := assign.NewBuilder(nil).Assign(context.Background(), assign.Problem{
		Residents:   residents("r1"),
		Window:      w,
		Eligibility: assign.NewMatrix(map[string][]string{"r1": {"2025-08-23"}}),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalFlow)
	assert.EqualValues(t, 2, res.Required)
	assert.True(t, res.Infeasible)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "2025-08-23", res.Assignments[0].CallDayID)
	require.Len(t, res.Unmet, 1)
	assert.Equal(t, "2025-08-30", res.Unmet[0].Day.ID())
	assert.Equal(t, 1, res.Unmet[0].Missing())
	assert.InDelta(t, 0.5, res.Coverage(), 1e-9)
}

func TestMalformedYearFailsBeforeBuild(t *testing.T) {
	w, err := calendar.Generate(1492)
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
	assert.Nil(t, w)

	_, err = assign.Build(assign.Problem{Residents: residents("a"), Window: w})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestBuildValidation(t *testing.T) {
	w := saturdays(t, 10)
	cases := []struct {
		name   string
		p      assign.Problem
		config bool
	}{
		{"duplicate resident", assign.Problem{Residents: residents("a", "a"), Window: w}, false},
		{"empty resident id", assign.Problem{Residents: residents(""), Window: w}, false},
		{"negative cap", assign.Problem{Residents: []model.Resident{{ID: "a", WeeklyHourCap: -1}}, Window: w}, true},
		{"negative staffing", assign.Problem{Residents: residents("a"), Window: w, Staffing: assign.Staffing{model.CallSaturday: -1}}, false},
		{"zero hours per call", assign.Problem{Residents: residents("a"), Window: w, Capacity: assign.HourBudget{}}, true},
		{"negative fixed slots", assign.Problem{Residents: residents("a"), Window: w, Capacity: assign.FixedSlots{"a": -2}}, true},
		{"matrix unknown resident", assign.Problem{Residents: residents("a"), Window: w,
			Eligibility: assign.NewMatrix(map[string][]string{"zz": {"2025-08-16"}})}, false},
		{"matrix day outside window", assign.Problem{Residents: residents("a"), Window: w,
			Eligibility: assign.NewMatrix(map[string][]string{"a": {"2025-08-17"}})}, false},
		{"time off unknown resident", assign.Problem{Residents: residents("a"), Window: w,
			Eligibility: assign.Unavailability{"zz": nil}}, false},
		{"nested validator", assign.Problem{Residents: residents("a"), Window: w,
			Eligibility: assign.AllOf{assign.AllEligible{}, assign.NewMatrix(map[string][]string{"zz": nil})}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := assign.Build(tc.p)
			require.Error(t, err)
			assert.Nil(t, plan)
			if tc.config {
				assert.True(t, errs.IsConfiguration(err), "want configuration error, got %v", err)
			} else {
				assert.True(t, errs.IsValidation(err), "want validation error, got %v", err)
			}
		})
	}
}

func TestBuildLayout(t *testing.T) {
	w := saturdays(t, 10)
	plan, err := assign.Build(assign.Problem{
		Residents: residents("a", "b"),
		Window:    w,
		Capacity:  assign.FixedSlots{"a": 2, "b": 1},
		Staffing:  assign.Staffing{model.CallSaturday: 2},
	})
	require.NoError(t, err)
	n := plan.Network
	assert.Equal(t, 2+3+2, n.NodeCount())
	assert.Equal(t, 0, plan.Source)
	assert.Equal(t, 6, plan.Sink)
	assert.Equal(t, 1, plan.ResidentNode(0))
	assert.Equal(t, 3, plan.DayNode(0))
	// 2 source edges, 6 pair edges, 3 sink edges
	assert.Equal(t, 11, n.EdgeCount())
	assert.EqualValues(t, 6, plan.Required())

	first := n.Edge(n.Edges(plan.ResidentNode(0))[1])
	assert.Equal(t, plan.DayNode(0), first.To)
	assert.EqualValues(t, 1, first.Capacity)
}

func TestStaffingAboveOne(t *testing.T) {
	w := saturdays(t, 10)
	res, err := assign.NewBuilder(nil).Assign(context.Background(), assign.Problem{
		Residents: residents("a", "b", "c"),
		Window:    w,
		Capacity:  assign.FixedSlots{"a": 3, "b": 3, "c": 3},
		Staffing:  assign.Staffing{model.CallSaturday: 2},
	})
	require.NoError(t, err)
	assert.False(t, res.Infeasible)
	assert.EqualValues(t, 6, res.TotalFlow)
	perDay := map[string]int{}
	for _, a := range res.Assignments {
		perDay[a.CallDayID]++
	}
	for _, c := range perDay {
		assert.Equal(t, 2, c)
	}
	assert.InDelta(t, 2.0, res.Stats.Mean, 1e-9)
}

func TestUnavailabilityBlocksTimeOff(t *testing.T) {
	w := saturdays(t, 10)
	off := assign.Unavailability{"a": {{
		Start: time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 8, 23, 0, 0, 0, 0, time.UTC),
	}}}
	res, err := assign.NewBuilder(nil).Assign(context.Background(), assign.Problem{
		Residents:   residents("a"),
		Window:      w,
		Eligibility: off,
		Capacity:    assign.FixedSlots{"a": 3},
	})
	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "2025-08-30", res.Assignments[0].CallDayID)
	assert.Len(t, res.Unmet, 2)
}

func TestHourBudgetSlots(t *testing.T) {
	w, err := calendar.Generate(2025)
	require.NoError(t, err)
	require.Equal(t, 9, w.Weeks())
	h := assign.HourBudget{HoursPerCall: 12}

	cases := []struct {
		name string
		r    model.Resident
		want int
	}{
		{"weekly cap binds", model.Resident{ID: "a", WeeklyHourCap: 24, BiYearlyHourCap: 600}, 18},
		{"bi-yearly budget binds", model.Resident{ID: "b", WeeklyHourCap: 80, BiYearlyHourCap: 600, TotalHoursAccrued: 560}, 3},
		{"budget exhausted", model.Resident{ID: "c", WeeklyHourCap: 80, BiYearlyHourCap: 600, TotalHoursAccrued: 700}, 0},
		{"below one call", model.Resident{ID: "d", WeeklyHourCap: 80, BiYearlyHourCap: 600, TotalHoursAccrued: 590}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, h.Slots(tc.r, w))
		})
	}
}

func TestCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := assign.NewBuilder(nil).Assign(ctx, assign.Problem{
		Residents: residents("a"),
		Window:    saturdays(t, 10),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, flow.ErrSolveAborted))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRandomProblemsRespectCapacity(t *testing.T) {
	w, err := calendar.Generate(2025)
	require.NoError(t, err)
	days := w.All()
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 50; iter++ {
		nRes := 1 + rng.Intn(6)
		rs := make([]model.Resident, nRes)
		slots := assign.FixedSlots{}
		matrix := map[string][]string{}
		for i := range rs {
			id := string(rune('a' + i))
			rs[i] = model.Resident{ID: id}
			slots[id] = rng.Intn(12)
			for _, d := range days {
				if rng.Intn(3) > 0 {
					matrix[id] = append(matrix[id], d.ID())
				}
			}
		}
		staffing := assign.Staffing{
			model.CallShort:    rng.Intn(3),
			model.CallSaturday: rng.Intn(3),
			model.CallSunday:   rng.Intn(3),
		}
		m := assign.NewMatrix(matrix)

		plan, err := assign.Build(assign.Problem{Residents: rs, Window: w, Eligibility: m, Staffing: staffing, Capacity: slots})
		require.NoError(t, err)
		sol, err := flow.NewSolver().Solve(context.Background(), plan.Network, plan.Source, plan.Sink)
		require.NoError(t, err)
		require.NoError(t, plan.Network.CheckConservation(plan.Source, plan.Sink))
		res := plan.Decode(sol)

		require.EqualValues(t, res.TotalFlow, len(res.Assignments))
		require.Equal(t, res.TotalFlow < res.Required, res.Infeasible)
		cut := flow.MinCut(plan.Network, plan.Source)
		require.Equal(t, cut.Capacity, res.TotalFlow)

		perDay := map[string]int{}
		seen := map[string]bool{}
		for _, a := range res.Assignments {
			key := a.ResidentID + "/" + a.CallDayID
			require.False(t, seen[key], "duplicate assignment %s", key)
			seen[key] = true
			perDay[a.CallDayID]++
			require.True(t, m.Eligible(a.ResidentID, model.CallDay{Date: a.Date, Type: a.CallType}))
		}
		for id, n := range res.Load {
			require.LessOrEqual(t, n, slots[id])
		}
		var missing int64
		for _, d := range days {
			require.LessOrEqual(t, perDay[d.ID()], staffing.Required(d.Type))
		}
		for _, u := range res.Unmet {
			missing += int64(u.Missing())
		}
		require.Equal(t, res.Required-res.TotalFlow, missing)
		require.True(t, sort.SliceIsSorted(res.Assignments, func(i, j int) bool {
			return res.Assignments[i].Date.Before(res.Assignments[j].Date)
		}))
	}
}

func TestAssignDeterministic(t *testing.T) {
	w, err := calendar.Generate(2025)
	require.NoError(t, err)
	p := assign.Problem{
		Residents: residents("a", "b", "c", "d", "e"),
		Window:    w,
		Capacity:  assign.HourBudget{HoursPerCall: 12},
	}
	first, err := assign.NewBuilder(nil).Assign(context.Background(), p)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := assign.NewBuilder(nil).Assign(context.Background(), p)
		require.NoError(t, err)
		require.Equal(t, first.Assignments, again.Assignments)
	}
	assert.False(t, first.Infeasible)
	assert.Len(t, first.ByResident(), 5)
}
