package model

import "time"

// Assignment pairs a resident with a call day.
type Assignment struct {
	ResidentID string    `json:"resident_id"`
	CallDayID  string    `json:"call_day_id"`
	CallType   CallType  `json:"call_type"`
	Date       time.Time `json:"date"`
}

// UnmetDay reports a call day that could not be fully staffed.
type UnmetDay struct {
	Day      CallDay `json:"day"`
	Required int     `json:"required"`
	Assigned int     `json:"assigned"`
}

// Missing returns how many residents the day still needs.
func (u UnmetDay) Missing() int { return u.Required - u.Assigned }
