package scheduler

import (
	"time"

	"github.com/kilianp07/oncall/core/assign"
	"github.com/kilianp07/oncall/core/errs"
	"github.com/kilianp07/oncall/core/model"
)

// Config holds the defaults applied to requests that leave a setting out.
type Config struct {
	// Year is used when a request has no year.
	Year         int            `json:"year" yaml:"year"`
	HoursPerCall int            `json:"hours_per_call" yaml:"hours_per_call"`
	Staffing     map[string]int `json:"staffing" yaml:"staffing"`
	// MaxPhases caps Dinic phases per solve; 0 means unlimited.
	MaxPhases int `json:"max_phases" yaml:"max_phases"`
	// TimeoutSeconds bounds a single run; 0 means no deadline.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.HoursPerCall == 0 {
		c.HoursPerCall = assign.DefaultHoursPerCall
	}
}

// Validate checks the configured defaults.
func (c Config) Validate() error {
	const op = "scheduler.Config"
	if c.HoursPerCall < 0 {
		return errs.Configuration(op, "hours_per_call", "must not be negative, got %d", c.HoursPerCall)
	}
	if c.MaxPhases < 0 {
		return errs.Configuration(op, "max_phases", "must not be negative, got %d", c.MaxPhases)
	}
	if c.TimeoutSeconds < 0 {
		return errs.Configuration(op, "timeout_seconds", "must not be negative, got %d", c.TimeoutSeconds)
	}
	if _, err := parseStaffing(c.Staffing); err != nil {
		return err
	}
	return nil
}

// Timeout returns the per-run deadline, zero when unbounded.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func parseStaffing(raw map[string]int) (assign.Staffing, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	s := make(assign.Staffing, len(raw))
	for k, v := range raw {
		t, err := model.ParseCallType(k)
		if err != nil {
			return nil, errs.Validation("scheduler.staffing", k, "%v", err)
		}
		s[t] = v
	}
	return s, s.Validate()
}
