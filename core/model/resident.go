package model

import "github.com/kilianp07/oncall/core/errs"

// Resident is a trainee who can be assigned call days.
// TotalHoursAccrued is updated by the owning application between runs and is
// read-only during a run.
type Resident struct {
	ID                string `json:"id" yaml:"id"`
	WeeklyHourCap     int    `json:"weekly_hour_cap" yaml:"weekly_hour_cap"`
	BiYearlyHourCap   int    `json:"bi_yearly_hour_cap" yaml:"bi_yearly_hour_cap"`
	TotalHoursAccrued int    `json:"total_hours_accrued" yaml:"total_hours_accrued"`
}

// Validate checks the resident record before it enters a scheduling run.
func (r Resident) Validate() error {
	if r.ID == "" {
		return errs.Validation("resident", "id", "resident id is empty")
	}
	if r.WeeklyHourCap < 0 {
		return errs.Configuration("resident", "weekly_hour_cap", "resident %s has negative weekly cap %d", r.ID, r.WeeklyHourCap)
	}
	if r.BiYearlyHourCap < 0 {
		return errs.Configuration("resident", "bi_yearly_hour_cap", "resident %s has negative bi-yearly cap %d", r.ID, r.BiYearlyHourCap)
	}
	if r.TotalHoursAccrued < 0 {
		return errs.Configuration("resident", "total_hours_accrued", "resident %s has negative accrued hours %d", r.ID, r.TotalHoursAccrued)
	}
	return nil
}

// RemainingHours returns the bi-yearly budget left, never below zero.
func (r Resident) RemainingHours() int {
	left := r.BiYearlyHourCap - r.TotalHoursAccrued
	if left < 0 {
		return 0
	}
	return left
}
