package flow

// Cut is an s-t cut derived from a residual network.
type Cut struct {
	SourceSide []bool
	Capacity   int64
	Edges      []EdgeID
}

// MinCut returns the set of nodes reachable from source through edges with
// positive residual capacity, and the capacity of the forward edges leaving
// that set. After a completed solve the capacity equals the flow value.
func MinCut(n *Network, source int) Cut {
	reach := make([]bool, n.NodeCount())
	reach[source] = true
	stack := []int{source}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range n.adj[u] {
			ed := &n.edges[e]
			if !reach[ed.To] && ed.Capacity-ed.Flow > 0 {
				reach[ed.To] = true
				stack = append(stack, ed.To)
			}
		}
	}
	cut := Cut{SourceSide: reach}
	for i := 0; i < len(n.edges); i += 2 {
		ed := &n.edges[i]
		if reach[ed.From] && !reach[ed.To] {
			cut.Capacity += ed.Capacity
			cut.Edges = append(cut.Edges, EdgeID(i))
		}
	}
	return cut
}
