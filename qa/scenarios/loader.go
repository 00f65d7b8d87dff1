// Package scenarios replays YAML-described scheduling cases end to end:
// calendar, solver, history and metrics.
package scenarios

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/oncall/core/calendar"
	"github.com/kilianp07/oncall/core/model"
	"github.com/kilianp07/oncall/core/scheduler"
)

// CalendarDef overrides the default July/August window.
type CalendarDef struct {
	StartMonth int `yaml:"start_month"`
	StartDay   int `yaml:"start_day"`
	EndMonth   int `yaml:"end_month"`
	// Days maps weekday names to call type names.
	Days map[string]string `yaml:"days"`
}

// Rules converts the definition into calendar rules.
func (c CalendarDef) Rules() (calendar.Rules, error) {
	r := calendar.DefaultRules()
	r.StartMonth = time.Month(c.StartMonth)
	r.StartDay = c.StartDay
	r.EndMonth = time.Month(c.EndMonth)
	r.Classify = make(map[time.Weekday]model.CallType, len(c.Days))
	for day, typ := range c.Days {
		wd, err := parseWeekday(day)
		if err != nil {
			return r, err
		}
		ct, err := model.ParseCallType(typ)
		if err != nil {
			return r, err
		}
		r.Classify[wd] = ct
	}
	return r, nil
}

type Expected struct {
	TotalFlow  int64    `yaml:"total_flow"`
	Infeasible bool     `yaml:"infeasible"`
	Unmet      []string `yaml:"unmet,omitempty"`
	// MaxLoad bounds the calls any single resident may receive.
	MaxLoad map[string]int `yaml:"max_load,omitempty"`
	// ErrorKind, when set, is the failure the run must end with.
	ErrorKind string `yaml:"error_kind,omitempty"`
}

type Scenario struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Calendar    *CalendarDef      `yaml:"calendar,omitempty"`
	Config      scheduler.Config  `yaml:"config,omitempty"`
	Request     scheduler.Request `yaml:"request"`
	Expected    Expected          `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario has no name", path)
	}
	return &sc, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
