package flow

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/oncall/core/errs"
)

// ErrSolveAborted is returned when a solve exceeds its phase budget or its
// context is done before the maximum flow is reached.
var ErrSolveAborted = errors.New("flow: solve aborted")

// Result describes a completed solve.
type Result struct {
	Value         int64 `json:"value"`
	Phases        int   `json:"phases"`
	Augmentations int   `json:"augmentations"`
}

// Option configures a Solver.
type Option func(*Solver)

// WithMaxPhases caps the number of level-graph phases. Zero disables the cap.
func WithMaxPhases(n int) Option {
	return func(s *Solver) {
		if n >= 0 {
			s.maxPhases = n
		}
	}
}

// Solver computes maximum flows with Dinic's method. A Solver holds no
// per-solve state and may be shared between goroutines as long as each
// goroutine solves its own Network.
type Solver struct {
	maxPhases int
}

// NewSolver returns a Solver configured with opts.
func NewSolver(opts ...Option) *Solver {
	s := &Solver{}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Solve pushes the maximum flow from source to sink through n.
//
// Steps:
//  1. Validate the terminals.
//  2. Build levels by BFS; stop when the sink is unreached.
//  3. Push a blocking flow with per-node cursors.
//  4. Repeat from 2.
//
// The network structure is read-only here; only edge flows change.
func (s *Solver) Solve(ctx context.Context, n *Network, source, sink int) (Result, error) {
	const op = "flow.Solve"
	if n == nil {
		return Result{}, errs.Validation(op, "network", "network is nil")
	}
	if !n.valid(source) {
		return Result{}, errs.Validation(op, "source", "node %d out of range", source)
	}
	if !n.valid(sink) {
		return Result{}, errs.Validation(op, "sink", "node %d out of range", sink)
	}
	if source == sink {
		return Result{}, errs.Validation(op, "sink", "source and sink are both %d", source)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	nodes := n.NodeCount()
	level := make([]int, nodes)
	queue := make([]int, 0, nodes)
	iter := make([]int, nodes)
	path := make([]EdgeID, 0, nodes)

	var res Result
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrSolveAborted, err)
		}
		if !n.levels(source, sink, level, queue) {
			return res, nil
		}
		if s.maxPhases > 0 && res.Phases == s.maxPhases {
			return Result{}, fmt.Errorf("%w: phase budget %d exhausted", ErrSolveAborted, s.maxPhases)
		}
		res.Phases++
		for i := range iter {
			iter[i] = 0
		}
		pushed, augs, err := n.blockingFlow(ctx, source, sink, level, iter, path)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrSolveAborted, err)
		}
		res.Value += pushed
		res.Augmentations += augs
	}
}

// levels fills level with BFS distance + 1 from source over edges with
// positive residual capacity and reports whether sink was reached.
func (n *Network) levels(source, sink int, level, queue []int) bool {
	for i := range level {
		level[i] = 0
	}
	queue = queue[:0]
	level[source] = 1
	queue = append(queue, source)
	for head := 0; head < len(queue); head++ {
		u := queue[head]
		for _, e := range n.adj[u] {
			ed := &n.edges[e]
			if level[ed.To] == 0 && ed.Capacity-ed.Flow > 0 {
				level[ed.To] = level[u] + 1
				queue = append(queue, ed.To)
			}
		}
	}
	return level[sink] > 0
}

// blockingFlow saturates the level graph with an iterative depth-first walk.
// path holds the edges from source to the current node; iter[u] is the next
// adjacency slot of u to try and never moves backwards within a phase.
func (n *Network) blockingFlow(ctx context.Context, source, sink int, level, iter []int, path []EdgeID) (int64, int, error) {
	var (
		total int64
		augs  int
	)
	path = path[:0]
	u := source
	for {
		if u == sink {
			bottleneck := int64(math.MaxInt64)
			for _, e := range path {
				if rc := n.ResidualCapacity(e); rc < bottleneck {
					bottleneck = rc
				}
			}
			for _, e := range path {
				n.push(e, bottleneck)
			}
			total += bottleneck
			augs++
			if err := ctx.Err(); err != nil {
				return total, augs, err
			}
			// Resume from the tail of the first saturated edge.
			cut := 0
			for i, e := range path {
				if n.ResidualCapacity(e) == 0 {
					cut = i
					break
				}
			}
			u = n.edges[path[cut]].From
			path = path[:cut]
			continue
		}

		advanced := false
		for iter[u] < len(n.adj[u]) {
			e := n.adj[u][iter[u]]
			ed := &n.edges[e]
			if level[ed.To] == level[u]+1 && ed.Capacity-ed.Flow > 0 {
				path = append(path, e)
				u = ed.To
				advanced = true
				break
			}
			iter[u]++
		}
		if advanced {
			continue
		}
		if u == source {
			return total, augs, nil
		}
		// Dead end: retreat and skip the edge that led here.
		last := path[len(path)-1]
		path = path[:len(path)-1]
		u = n.edges[last].From
		iter[u]++
	}
}
