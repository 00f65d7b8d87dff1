package assign

import (
	"github.com/kilianp07/oncall/core/calendar"
	"github.com/kilianp07/oncall/core/errs"
	"github.com/kilianp07/oncall/core/model"
)

// CapacityPolicy derives how many calls a resident may still take in a window.
type CapacityPolicy interface {
	Slots(r model.Resident, w *calendar.Window) int
}

// HourBudget converts hour caps into call slots. The usable budget is the
// smaller of the bi-yearly hours left and the weekly cap over the weeks of the
// window; each call consumes HoursPerCall.
type HourBudget struct {
	HoursPerCall int
}

// DefaultHoursPerCall is the length of one call shift.
const DefaultHoursPerCall = 12

// Validate rejects a non-positive shift length.
func (h HourBudget) Validate() error {
	if h.HoursPerCall <= 0 {
		return errs.Configuration("assign.HourBudget", "hours_per_call", "hours per call must be positive, got %d", h.HoursPerCall)
	}
	return nil
}

// Slots implements CapacityPolicy.
func (h HourBudget) Slots(r model.Resident, w *calendar.Window) int {
	hours := r.RemainingHours()
	if weekly := r.WeeklyHourCap * w.Weeks(); weekly < hours {
		hours = weekly
	}
	return hours / h.HoursPerCall
}

// FixedSlots assigns an explicit call budget per resident ID. Residents not
// in the map get no calls.
type FixedSlots map[string]int

// Validate rejects negative budgets.
func (f FixedSlots) Validate() error {
	for id, v := range f {
		if v < 0 {
			return errs.Configuration("assign.FixedSlots", id, "negative call budget %d", v)
		}
	}
	return nil
}

// Slots implements CapacityPolicy.
func (f FixedSlots) Slots(r model.Resident, _ *calendar.Window) int { return f[r.ID] }
