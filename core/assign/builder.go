package assign

import (
	"context"
	"sort"

	"github.com/kilianp07/oncall/core/calendar"
	"github.com/kilianp07/oncall/core/errs"
	"github.com/kilianp07/oncall/core/flow"
	"github.com/kilianp07/oncall/core/model"
)

// Problem is one scheduling run's input.
type Problem struct {
	Residents   []model.Resident
	Window      *calendar.Window
	Eligibility Eligibility    // nil means AllEligible
	Staffing    Staffing       // nil means DefaultStaffing
	Capacity    CapacityPolicy // nil means HourBudget{DefaultHoursPerCall}
}

type pairEdge struct {
	id       flow.EdgeID
	resident int
	day      int
}

// Plan is a built, not yet solved, flow network together with the mapping
// back to residents and days. A Plan is owned by a single solve.
type Plan struct {
	Network *flow.Network
	Source  int
	Sink    int

	residents   []model.Resident
	days        []model.CallDay
	staffing    []int
	slots       []int
	sourceEdges []flow.EdgeID
	pairs       []pairEdge
	dayEdges    []flow.EdgeID
	required    int64
}

// ResidentNode returns the node index of the i-th resident.
func (p *Plan) ResidentNode(i int) int { return 1 + i }

// DayNode returns the node index of the j-th call day.
func (p *Plan) DayNode(j int) int { return 1 + len(p.residents) + j }

// Required returns the total staffing demand across all call days.
func (p *Plan) Required() int64 { return p.required }

// Build validates the problem and lays out its flow network. Every input
// check runs before the network is allocated.
func Build(p Problem) (*Plan, error) {
	if err := validate(&p); err != nil {
		return nil, err
	}

	days := p.Window.All()
	slots := make([]int, len(p.Residents))
	for i, r := range p.Residents {
		s := p.Capacity.Slots(r, p.Window)
		if s < 0 {
			return nil, errs.Configuration("assign.Build", r.ID, "capacity policy returned %d slots", s)
		}
		slots[i] = s
	}

	nRes, nDays := len(p.Residents), len(days)
	net, err := flow.NewNetwork(nRes + nDays + 2)
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		Network:     net,
		Source:      0,
		Sink:        nRes + nDays + 1,
		residents:   p.Residents,
		days:        days,
		staffing:    make([]int, nDays),
		slots:       slots,
		sourceEdges: make([]flow.EdgeID, nRes),
		dayEdges:    make([]flow.EdgeID, nDays),
	}

	for i := range p.Residents {
		if plan.sourceEdges[i], err = net.AddEdge(plan.Source, plan.ResidentNode(i), int64(slots[i])); err != nil {
			return nil, err
		}
	}
	for i, r := range p.Residents {
		for j, d := range days {
			if !p.Eligibility.Eligible(r.ID, d) {
				continue
			}
			id, err := net.AddEdge(plan.ResidentNode(i), plan.DayNode(j), 1)
			if err != nil {
				return nil, err
			}
			plan.pairs = append(plan.pairs, pairEdge{id: id, resident: i, day: j})
		}
	}
	for j, d := range days {
		need := p.Staffing.Required(d.Type)
		plan.staffing[j] = need
		plan.required += int64(need)
		if plan.dayEdges[j], err = net.AddEdge(plan.DayNode(j), plan.Sink, int64(need)); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func validate(p *Problem) error {
	if p.Window == nil {
		return errs.Validation("assign.Build", "window", "no calendar window")
	}
	if p.Window.Len() == 0 {
		return errs.Configuration("assign.Build", "window", "window for %d has no call days", p.Window.Year)
	}
	if p.Eligibility == nil {
		p.Eligibility = AllEligible{}
	}
	if p.Staffing == nil {
		p.Staffing = DefaultStaffing()
	}
	if p.Capacity == nil {
		p.Capacity = HourBudget{HoursPerCall: DefaultHoursPerCall}
	}

	seen := make(map[string]struct{}, len(p.Residents))
	for _, r := range p.Residents {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return errs.Validation("assign.Build", "residents", "duplicate resident id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	if err := p.Staffing.Validate(); err != nil {
		return err
	}
	if v, ok := p.Capacity.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if v, ok := p.Eligibility.(Validator); ok {
		if err := v.Validate(seen, p.Window); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads the solved network back into a Result. It must only be called
// after a solve that completed without error.
func (p *Plan) Decode(sol flow.Result) *Result {
	res := &Result{
		TotalFlow: sol.Value,
		Required:  p.required,
		Solve:     sol,
		Load:      make(map[string]int, len(p.residents)),
		Budget:    make(map[string]int, len(p.residents)),
	}
	counts := make([]int, len(p.residents))
	for i, r := range p.residents {
		res.Budget[r.ID] = p.slots[i]
	}

	type ordered struct {
		a        model.Assignment
		resident int
	}
	var picked []ordered
	for _, pe := range p.pairs {
		if !p.Network.Saturated(pe.id) {
			continue
		}
		d := p.days[pe.day]
		counts[pe.resident]++
		picked = append(picked, ordered{
			a: model.Assignment{
				ResidentID: p.residents[pe.resident].ID,
				CallDayID:  d.ID(),
				CallType:   d.Type,
				Date:       d.Date,
			},
			resident: pe.resident,
		})
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if !picked[i].a.Date.Equal(picked[j].a.Date) {
			return picked[i].a.Date.Before(picked[j].a.Date)
		}
		return picked[i].resident < picked[j].resident
	})
	res.Assignments = make([]model.Assignment, len(picked))
	for i, o := range picked {
		res.Assignments[i] = o.a
	}

	for j, d := range p.days {
		got := int(p.Network.Edge(p.dayEdges[j]).Flow)
		if got < p.staffing[j] {
			res.Unmet = append(res.Unmet, model.UnmetDay{Day: d, Required: p.staffing[j], Assigned: got})
		}
	}
	res.Infeasible = res.TotalFlow < res.Required

	for i, r := range p.residents {
		res.Load[r.ID] = counts[i]
	}
	res.Stats = loadStats(counts)
	return res
}

// Builder runs build, solve and decode with a shared solver configuration.
type Builder struct {
	solver *flow.Solver
}

// NewBuilder returns a Builder using solver, or a default solver when nil.
func NewBuilder(solver *flow.Solver) *Builder {
	if solver == nil {
		solver = flow.NewSolver()
	}
	return &Builder{solver: solver}
}

// Assign computes a schedule for p. An understaffed schedule is returned as
// a Result with Infeasible set; errors are reserved for bad input and
// aborted solves.
func (b *Builder) Assign(ctx context.Context, p Problem) (*Result, error) {
	plan, err := Build(p)
	if err != nil {
		return nil, err
	}
	sol, err := b.solver.Solve(ctx, plan.Network, plan.Source, plan.Sink)
	if err != nil {
		return nil, err
	}
	return plan.Decode(sol), nil
}
