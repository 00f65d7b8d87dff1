package flow_test

import (
	"context"
	"testing"

	"github.com/kilianp07/oncall/core/flow"
)

// buildBipartite mirrors the assignment network: source, r residents, d days
// and sink, with every resident eligible for every day.
func buildBipartite(r, d int) *flow.Network {
	n, _ := flow.NewNetwork(r + d + 2)
	sink := r + d + 1
	for i := 1; i <= r; i++ {
		_, _ = n.AddEdge(0, i, int64(d/r+1))
		for j := 0; j < d; j++ {
			_, _ = n.AddEdge(i, r+1+j, 1)
		}
	}
	for j := 0; j < d; j++ {
		_, _ = n.AddEdge(r+1+j, sink, 1)
	}
	return n
}

func BenchmarkSolveBipartite(b *testing.B) {
	cases := []struct {
		name      string
		residents int
		days      int
	}{
		{"Small", 10, 42},
		{"Medium", 60, 42},
		{"Large", 300, 200},
	}
	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			solver := flow.NewSolver()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				n := buildBipartite(tc.residents, tc.days)
				b.StartTimer()
				if _, err := solver.Solve(context.Background(), n, 0, tc.residents+tc.days+1); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
