package assign

import (
	"time"

	"github.com/kilianp07/oncall/core/calendar"
	"github.com/kilianp07/oncall/core/errs"
	"github.com/kilianp07/oncall/core/model"
)

// Eligibility decides whether a resident may cover a call day. It is supplied
// by the owning application and is consulted once per pair while building.
type Eligibility interface {
	Eligible(residentID string, day model.CallDay) bool
}

// Validator is implemented by eligibility sources that reference residents or
// days and can check those references before a build.
type Validator interface {
	Validate(residents map[string]struct{}, w *calendar.Window) error
}

// AllEligible makes every resident eligible for every day.
type AllEligible struct{}

// Eligible implements Eligibility.
func (AllEligible) Eligible(string, model.CallDay) bool { return true }

// Func adapts a plain function to Eligibility.
type Func func(residentID string, day model.CallDay) bool

// Eligible implements Eligibility.
func (f Func) Eligible(id string, day model.CallDay) bool { return f(id, day) }

// Matrix lists, per resident, the call day IDs the resident may cover.
// Residents absent from the matrix are eligible for nothing.
type Matrix map[string]map[string]struct{}

// NewMatrix builds a Matrix from resident → day ID lists.
func NewMatrix(src map[string][]string) Matrix {
	m := make(Matrix, len(src))
	for id, days := range src {
		set := make(map[string]struct{}, len(days))
		for _, d := range days {
			set[d] = struct{}{}
		}
		m[id] = set
	}
	return m
}

// Eligible implements Eligibility.
func (m Matrix) Eligible(id string, day model.CallDay) bool {
	_, ok := m[id][day.ID()]
	return ok
}

// Validate rejects unknown residents and days outside the window.
func (m Matrix) Validate(residents map[string]struct{}, w *calendar.Window) error {
	for id, days := range m {
		if _, ok := residents[id]; !ok {
			return errs.Validation("assign.Matrix", "resident", "unknown resident %q", id)
		}
		for d := range days {
			if !w.Contains(d) {
				return errs.Validation("assign.Matrix", "day", "day %q of resident %q is not a call day of the window", d, id)
			}
		}
	}
	return nil
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Covers reports whether t falls within the range.
func (r DateRange) Covers(t time.Time) bool {
	d := model.DayOf(t)
	return !d.Before(model.DayOf(r.Start)) && !d.After(model.DayOf(r.End))
}

// Unavailability marks residents ineligible on approved time-off ranges.
type Unavailability map[string][]DateRange

// Eligible implements Eligibility.
func (u Unavailability) Eligible(id string, day model.CallDay) bool {
	for _, r := range u[id] {
		if r.Covers(day.Date) {
			return false
		}
	}
	return true
}

// Validate rejects unknown residents and inverted ranges.
func (u Unavailability) Validate(residents map[string]struct{}, _ *calendar.Window) error {
	for id, ranges := range u {
		if _, ok := residents[id]; !ok {
			return errs.Validation("assign.Unavailability", "resident", "unknown resident %q", id)
		}
		for _, r := range ranges {
			if r.End.Before(r.Start) {
				return errs.Validation("assign.Unavailability", "range", "time off of %q ends before it starts", id)
			}
		}
	}
	return nil
}

// AllOf is eligible only when every member is.
type AllOf []Eligibility

// Eligible implements Eligibility.
func (a AllOf) Eligible(id string, day model.CallDay) bool {
	for _, e := range a {
		if !e.Eligible(id, day) {
			return false
		}
	}
	return true
}

// Validate runs the members' validators.
func (a AllOf) Validate(residents map[string]struct{}, w *calendar.Window) error {
	for _, e := range a {
		if v, ok := e.(Validator); ok {
			if err := v.Validate(residents, w); err != nil {
				return err
			}
		}
	}
	return nil
}
