package model

import (
	"fmt"
	"strings"
	"time"
)

// CallType classifies a call day.
type CallType int

const (
	CallShort CallType = iota
	CallSaturday
	CallSunday
)

// CallTypes lists every call type in canonical order.
var CallTypes = []CallType{CallShort, CallSaturday, CallSunday}

// DayLayout is the layout of CallDay identifiers.
const DayLayout = "2006-01-02"

// String returns the configuration name of the call type.
func (t CallType) String() string {
	switch t {
	case CallShort:
		return "short_call"
	case CallSaturday:
		return "saturday"
	case CallSunday:
		return "sunday"
	default:
		return "unknown"
	}
}

// ParseCallType converts a configuration name into a CallType.
func ParseCallType(s string) (CallType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short_call", "shortcall", "short":
		return CallShort, nil
	case "saturday", "sat":
		return CallSaturday, nil
	case "sunday", "sun":
		return CallSunday, nil
	default:
		return 0, fmt.Errorf("unknown call type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t CallType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *CallType) UnmarshalText(b []byte) error {
	v, err := ParseCallType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// CallDay is a calendar date requiring on-call coverage.
type CallDay struct {
	Date time.Time `json:"date"`
	Type CallType  `json:"type"`
}

// ID returns the ISO date of the call day. It is unique within a window.
func (d CallDay) ID() string { return d.Date.Format(DayLayout) }

// DayOf truncates t to midnight UTC.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD identifier.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, time.UTC)
}
