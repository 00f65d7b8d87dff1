package flow

import (
	"fmt"

	"github.com/kilianp07/oncall/core/errs"
)

// EdgeID addresses an edge in a Network arena.
type EdgeID int

// Edge is a directed capacitated edge.
type Edge struct {
	From     int
	To       int
	Capacity int64
	Flow     int64
	Rev      EdgeID // paired residual edge
}

// Network is a capacitated directed multigraph over a fixed node count.
// A Network is not safe for concurrent use; build one per solve.
type Network struct {
	edges []Edge
	adj   [][]EdgeID
}

// NewNetwork allocates a network with n nodes indexed 0..n-1.
func NewNetwork(n int) (*Network, error) {
	if n < 2 {
		return nil, errs.Validation("flow.NewNetwork", "nodes", "network needs at least 2 nodes, got %d", n)
	}
	return &Network{adj: make([][]EdgeID, n)}, nil
}

// NodeCount returns the number of nodes.
func (n *Network) NodeCount() int { return len(n.adj) }

// EdgeCount returns the number of forward edges.
func (n *Network) EdgeCount() int { return len(n.edges) / 2 }

// AddEdge appends a forward edge from→to and its zero-capacity residual pair.
func (n *Network) AddEdge(from, to int, capacity int64) (EdgeID, error) {
	const op = "flow.AddEdge"
	if capacity < 0 {
		return 0, errs.Validation(op, "capacity", "negative capacity %d on %d→%d", capacity, from, to)
	}
	if !n.valid(from) {
		return 0, errs.Validation(op, "from", "node %d out of range [0,%d)", from, len(n.adj))
	}
	if !n.valid(to) {
		return 0, errs.Validation(op, "to", "node %d out of range [0,%d)", to, len(n.adj))
	}
	id := EdgeID(len(n.edges))
	n.edges = append(n.edges,
		Edge{From: from, To: to, Capacity: capacity, Rev: id + 1},
		Edge{From: to, To: from, Capacity: 0, Rev: id},
	)
	n.adj[from] = append(n.adj[from], id)
	n.adj[to] = append(n.adj[to], id+1)
	return id, nil
}

// Edge returns a copy of edge e.
func (n *Network) Edge(e EdgeID) Edge { return n.edges[e] }

// IsResidual reports whether e is the residual half of a pair.
func (n *Network) IsResidual(e EdgeID) bool { return e%2 == 1 }

// Edges returns the edges leaving u, residual edges included, in
// insertion order.
func (n *Network) Edges(u int) []EdgeID {
	out := make([]EdgeID, len(n.adj[u]))
	copy(out, n.adj[u])
	return out
}

// ResidualCapacity returns capacity - flow for edge e.
func (n *Network) ResidualCapacity(e EdgeID) int64 {
	ed := &n.edges[e]
	return ed.Capacity - ed.Flow
}

// PushFlow sends amount units along e and takes them back from its pair.
func (n *Network) PushFlow(e EdgeID, amount int64) error {
	const op = "flow.PushFlow"
	if int(e) < 0 || int(e) >= len(n.edges) {
		return errs.Validation(op, "edge", "edge %d out of range", e)
	}
	if amount < 0 {
		return errs.Validation(op, "amount", "negative amount %d", amount)
	}
	if rc := n.ResidualCapacity(e); amount > rc {
		return errs.Validation(op, "amount", "amount %d exceeds residual capacity %d on edge %d", amount, rc, e)
	}
	n.push(e, amount)
	return nil
}

func (n *Network) push(e EdgeID, amount int64) {
	n.edges[e].Flow += amount
	n.edges[n.edges[e].Rev].Flow -= amount
}

// Saturated reports whether forward edge e carries its full capacity.
func (n *Network) Saturated(e EdgeID) bool {
	ed := &n.edges[e]
	return ed.Capacity > 0 && ed.Flow == ed.Capacity
}

// Excess returns inflow minus outflow at u, counting forward edges only.
func (n *Network) Excess(u int) int64 {
	var ex int64
	for i := 0; i < len(n.edges); i += 2 {
		e := &n.edges[i]
		if e.To == u {
			ex += e.Flow
		}
		if e.From == u {
			ex -= e.Flow
		}
	}
	return ex
}

// CheckConservation verifies capacity bounds on every forward edge and zero
// excess at every node other than source and sink.
func (n *Network) CheckConservation(source, sink int) error {
	excess := make([]int64, len(n.adj))
	for i := 0; i < len(n.edges); i += 2 {
		e := &n.edges[i]
		if e.Flow < 0 || e.Flow > e.Capacity {
			return fmt.Errorf("flow: edge %d→%d carries %d outside [0,%d]", e.From, e.To, e.Flow, e.Capacity)
		}
		excess[e.To] += e.Flow
		excess[e.From] -= e.Flow
	}
	for u, ex := range excess {
		if u == source || u == sink {
			continue
		}
		if ex != 0 {
			return fmt.Errorf("flow: node %d has excess %d", u, ex)
		}
	}
	return nil
}

// Reset clears the flow on every edge.
func (n *Network) Reset() {
	for i := range n.edges {
		n.edges[i].Flow = 0
	}
}

func (n *Network) valid(u int) bool { return u >= 0 && u < len(n.adj) }
