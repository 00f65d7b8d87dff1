// Package flow implements a capacitated directed network and a maximum-flow
// solver based on Dinic's method.
//
// # Network
//
// Network stores edges in a single arena slice addressed by EdgeID. Every
// AddEdge appends a forward edge and its residual pair; forward edges carry
// even identifiers and the pair of e is always e^1. Adjacency is a per-node
// list of edge identifiers kept in insertion order. The order is fixed once
// an edge is added and nothing in this package reorders it, so a given
// network always yields the same flow decomposition.
//
// Flow bookkeeping follows the usual residual convention: a residual edge has
// capacity 0 and a flow equal to the negated flow of its forward pair, which
// makes its residual capacity equal to the flow that can be undone.
//
// # Solver
//
// Each phase of Solver.Solve:
//
//  1. Breadth-first search from the source over edges with positive residual
//     capacity assigns level = distance + 1 (0 means unreached). The solve
//     ends when the sink is unreached.
//  2. A blocking flow is pushed along the level graph. Per-node cursors are
//     reset every phase and only move forward, so an edge leading to a dead
//     end is never retried within the phase. The depth-first walk uses an
//     explicit stack bounded by the node count.
//  3. Pushed amounts accumulate into the flow value.
//
// Complexity: O(V²·E) in general, O(E·√V) on unit-capacity bipartite
// networks such as the resident/day assignment graph.
//
// # Aborting
//
// The algorithm itself always terminates. Callers that need bounded latency
// can pass a context deadline or WithMaxPhases; exceeding either returns
// ErrSolveAborted and no flow value. The network then holds a partial flow
// that must be discarded or Reset before reuse.
package flow
