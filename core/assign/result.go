package assign

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/oncall/core/flow"
	"github.com/kilianp07/oncall/core/model"
)

// Result is the decoded outcome of one solve.
type Result struct {
	Assignments []model.Assignment `json:"assignments"`
	Unmet       []model.UnmetDay   `json:"unmet,omitempty"`
	TotalFlow   int64              `json:"total_flow"`
	Required    int64              `json:"required"`
	Infeasible  bool               `json:"infeasible"`
	// Load counts assigned calls per resident, zero included.
	Load map[string]int `json:"load"`
	// Budget is the slot count each resident entered the solve with.
	Budget map[string]int `json:"budget"`
	Stats  LoadStats      `json:"stats"`
	Solve  flow.Result    `json:"solve"`
}

// LoadStats summarises how evenly calls were spread across residents.
type LoadStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Coverage is the fraction of required resident-days that were staffed.
func (r *Result) Coverage() float64 {
	if r.Required == 0 {
		return 1
	}
	return float64(r.TotalFlow) / float64(r.Required)
}

// ByResident groups assignments per resident, preserving date order.
func (r *Result) ByResident() map[string][]model.Assignment {
	out := make(map[string][]model.Assignment, len(r.Load))
	for _, a := range r.Assignments {
		out[a.ResidentID] = append(out[a.ResidentID], a)
	}
	return out
}

func loadStats(counts []int) LoadStats {
	if len(counts) == 0 {
		return LoadStats{}
	}
	x := make([]float64, len(counts))
	for i, c := range counts {
		x[i] = float64(c)
	}
	var s LoadStats
	if len(x) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
	} else {
		s.Mean = x[0]
	}
	s.Min = floats.Min(x)
	s.Max = floats.Max(x)
	return s
}
