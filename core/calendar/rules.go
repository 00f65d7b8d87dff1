package calendar

import (
	"time"

	"github.com/kilianp07/oncall/core/errs"
	"github.com/kilianp07/oncall/core/model"
)

// Rules describes a calendar window and its weekday classification.
type Rules struct {
	StartMonth time.Month                      `json:"start_month"`
	StartDay   int                             `json:"start_day"`
	EndMonth   time.Month                      `json:"end_month"` // exclusive
	Anchor     time.Weekday                    `json:"anchor"`
	Classify   map[time.Weekday]model.CallType `json:"-"`
	MinYear    int                             `json:"min_year"`
	MaxYear    int                             `json:"max_year"`
}

// DefaultRules returns the July/August training window.
func DefaultRules() Rules {
	return Rules{
		StartMonth: time.July,
		StartDay:   1,
		EndMonth:   time.September,
		Anchor:     time.Saturday,
		Classify: map[time.Weekday]model.CallType{
			time.Tuesday:   model.CallShort,
			time.Wednesday: model.CallShort,
			time.Thursday:  model.CallShort,
			time.Saturday:  model.CallSaturday,
			time.Sunday:    model.CallSunday,
		},
		MinYear: 1900,
		MaxYear: 2200,
	}
}

// Validate rejects contradictory rule sets.
func (r Rules) Validate() error {
	const op = "calendar.Rules"
	if r.StartMonth < time.January || r.StartMonth > time.December {
		return errs.Configuration(op, "start_month", "invalid month %d", r.StartMonth)
	}
	if r.EndMonth <= r.StartMonth || r.EndMonth > time.December+1 {
		return errs.Configuration(op, "end_month", "end month %d must follow start month %d", r.EndMonth, r.StartMonth)
	}
	if r.StartDay < 1 || r.StartDay > 28 {
		return errs.Configuration(op, "start_day", "start day %d outside 1..28", r.StartDay)
	}
	if r.Anchor < time.Sunday || r.Anchor > time.Saturday {
		return errs.Configuration(op, "anchor", "invalid weekday %d", r.Anchor)
	}
	if len(r.Classify) == 0 {
		return errs.Configuration(op, "classify", "no weekday is classified as a call day")
	}
	if r.MinYear > r.MaxYear {
		return errs.Configuration(op, "min_year", "min year %d after max year %d", r.MinYear, r.MaxYear)
	}
	return nil
}
