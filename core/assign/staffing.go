package assign

import (
	"github.com/kilianp07/oncall/core/errs"
	"github.com/kilianp07/oncall/core/model"
)

// Staffing is the number of residents required per call day, by type.
// Types absent from the map require one resident.
type Staffing map[model.CallType]int

// DefaultStaffing requires one resident on every call day.
func DefaultStaffing() Staffing {
	return Staffing{model.CallShort: 1, model.CallSaturday: 1, model.CallSunday: 1}
}

// Required returns the staffing count for t.
func (s Staffing) Required(t model.CallType) int {
	if v, ok := s[t]; ok {
		return v
	}
	return 1
}

// Validate rejects negative requirements.
func (s Staffing) Validate() error {
	for t, v := range s {
		if v < 0 {
			return errs.Validation("assign.Staffing", t.String(), "negative staffing requirement %d", v)
		}
	}
	return nil
}
