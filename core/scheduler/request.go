package scheduler

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/oncall/core/assign"
	"github.com/kilianp07/oncall/core/errs"
	"github.com/kilianp07/oncall/core/model"
)

// TimeOff is an approved absence, both ends inclusive, as YYYY-MM-DD.
type TimeOff struct {
	Start string `json:"start" yaml:"start" validate:"required"`
	End   string `json:"end" yaml:"end" validate:"required"`
}

// Request is one scheduling job as read from a file or a message.
type Request struct {
	Year         int                  `json:"year,omitempty" yaml:"year,omitempty"`
	HoursPerCall int                  `json:"hours_per_call,omitempty" yaml:"hours_per_call,omitempty" validate:"gte=0"`
	Staffing     map[string]int       `json:"staffing,omitempty" yaml:"staffing,omitempty" validate:"dive,gte=0"`
	Residents    []model.Resident     `json:"residents" yaml:"residents"`
	TimeOff      map[string][]TimeOff `json:"time_off,omitempty" yaml:"time_off,omitempty" validate:"dive,dive"`
	// Eligibility, when present, lists the only days each resident may take.
	Eligibility map[string][]string `json:"eligibility,omitempty" yaml:"eligibility,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks the request shape. Resident records and references to
// residents or days are checked when the problem is built.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return errs.Validation("scheduler.Request", fe.Namespace(), "failed %q check (value %v)", fe.Tag(), fe.Value())
		}
		return errs.Validation("scheduler.Request", "", "%v", err)
	}
	return nil
}

// problem converts the request into the assignment inputs, applying cfg
// defaults where the request is silent.
func (r Request) problem(cfg Config) (assign.Problem, error) {
	p := assign.Problem{Residents: r.Residents}

	hours := r.HoursPerCall
	if hours == 0 {
		hours = cfg.HoursPerCall
	}
	p.Capacity = assign.HourBudget{HoursPerCall: hours}

	raw := r.Staffing
	if len(raw) == 0 {
		raw = cfg.Staffing
	}
	staffing, err := parseStaffing(raw)
	if err != nil {
		return p, err
	}
	p.Staffing = staffing

	var elig assign.AllOf
	if len(r.TimeOff) > 0 {
		off := make(assign.Unavailability, len(r.TimeOff))
		for id, ranges := range r.TimeOff {
			for _, tr := range ranges {
				start, err := model.ParseDay(tr.Start)
				if err != nil {
					return p, errs.Validation("scheduler.Request", "time_off", "resident %s: %v", id, err)
				}
				end, err := model.ParseDay(tr.End)
				if err != nil {
					return p, errs.Validation("scheduler.Request", "time_off", "resident %s: %v", id, err)
				}
				off[id] = append(off[id], assign.DateRange{Start: start, End: end})
			}
		}
		elig = append(elig, off)
	}
	if r.Eligibility != nil {
		elig = append(elig, assign.NewMatrix(r.Eligibility))
	}
	if len(elig) > 0 {
		p.Eligibility = elig
	}
	return p, nil
}

// LoadRequest loads a Request from a JSON or YAML file.
func LoadRequest(path string) (Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return Request{}, err
	}
	defer func() { _ = f.Close() }()
	return DecodeRequest(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// DecodeRequest reads a Request in the given format ("yaml", "yml" or "json").
func DecodeRequest(r io.Reader, format string) (Request, error) {
	var req Request
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&req); err != nil {
			return req, errs.Validation("scheduler.DecodeRequest", "yaml", "%v", err)
		}
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return req, errs.Validation("scheduler.DecodeRequest", "json", "%v", err)
		}
	default:
		return req, errs.Validation("scheduler.DecodeRequest", "format", "unsupported request format %q", format)
	}
	return req, nil
}
