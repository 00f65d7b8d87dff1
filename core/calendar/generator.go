package calendar

import (
	"sort"
	"time"

	"github.com/kilianp07/oncall/core/errs"
	"github.com/kilianp07/oncall/core/model"
)

// Stats summarises a generated window.
type Stats struct {
	ShortCall    int       `json:"short_call"`
	Saturday     int       `json:"saturday"`
	Sunday       int       `json:"sunday"`
	Unclassified int       `json:"unclassified"`
	Total        int       `json:"total"`
	First        time.Time `json:"first"`
	Last         time.Time `json:"last"`
}

// Window holds the call days of one academic sub-period.
type Window struct {
	Year  int
	Start time.Time
	End   time.Time // inclusive
	Stats Stats

	byType map[model.CallType][]model.CallDay
	index  map[string]model.CallDay
}

// Days returns the ascending call days of type t. Index 0 is the first
// occurrence of that type in the window.
func (w *Window) Days(t model.CallType) []model.CallDay {
	src := w.byType[t]
	out := make([]model.CallDay, len(src))
	copy(out, src)
	return out
}

// All returns every call day of the window in ascending date order.
func (w *Window) All() []model.CallDay {
	out := make([]model.CallDay, 0, len(w.index))
	for _, t := range model.CallTypes {
		out = append(out, w.byType[t]...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Len returns the number of call days.
func (w *Window) Len() int { return len(w.index) }

// Lookup returns the call day with the given identifier.
func (w *Window) Lookup(id string) (model.CallDay, bool) {
	d, ok := w.index[id]
	return d, ok
}

// Contains reports whether id is a call day of the window.
func (w *Window) Contains(id string) bool {
	_, ok := w.index[id]
	return ok
}

// Weeks returns the number of started weeks covered by the window.
func (w *Window) Weeks() int {
	days := int(w.End.Sub(w.Start).Hours()/24) + 1
	return (days + 6) / 7
}

// Generator builds windows from a rule set.
type Generator struct {
	rules Rules
}

// NewGenerator validates rules and returns a Generator.
func NewGenerator(rules Rules) (*Generator, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	cp := rules
	cp.Classify = make(map[time.Weekday]model.CallType, len(rules.Classify))
	for k, v := range rules.Classify {
		cp.Classify[k] = v
	}
	return &Generator{rules: cp}, nil
}

// Rules returns the generator's rule set.
func (g *Generator) Rules() Rules { return g.rules }

// Generate enumerates the call days of year.
func (g *Generator) Generate(year int) (*Window, error) {
	const op = "calendar.Generate"
	r := g.rules
	if year < r.MinYear || year > r.MaxYear {
		return nil, errs.Configuration(op, "year", "year %d outside %d..%d", year, r.MinYear, r.MaxYear)
	}

	day := time.Date(year, r.StartMonth, r.StartDay, 0, 0, 0, 0, time.UTC)
	for day.Weekday() != r.Anchor {
		day = day.AddDate(0, 0, 1)
	}

	w := &Window{
		Year:   year,
		Start:  day,
		byType: make(map[model.CallType][]model.CallDay, len(model.CallTypes)),
		index:  make(map[string]model.CallDay),
	}
	for ; day.Month() < r.EndMonth && day.Year() == year; day = day.AddDate(0, 0, 1) {
		w.End = day
		t, ok := r.Classify[day.Weekday()]
		if !ok {
			w.Stats.Unclassified++
			continue
		}
		cd := model.CallDay{Date: day, Type: t}
		w.byType[t] = append(w.byType[t], cd)
		w.index[cd.ID()] = cd
		switch t {
		case model.CallShort:
			w.Stats.ShortCall++
		case model.CallSaturday:
			w.Stats.Saturday++
		case model.CallSunday:
			w.Stats.Sunday++
		}
		if w.Stats.First.IsZero() {
			w.Stats.First = day
		}
		w.Stats.Last = day
	}
	w.Stats.Total = len(w.index)
	if w.Stats.Total == 0 {
		return nil, errs.Configuration(op, "year", "window for %d contains no call days", year)
	}
	return w, nil
}

// Generate builds the window for year using DefaultRules.
func Generate(year int) (*Window, error) {
	g, err := NewGenerator(DefaultRules())
	if err != nil {
		return nil, err
	}
	return g.Generate(year)
}
