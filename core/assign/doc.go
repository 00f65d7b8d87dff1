// Package assign maps a call-scheduling problem onto a flow network, solves
// it and decodes the saturated resident→day edges into assignments.
//
// Network layout for R residents and D call days:
//
//	node 0            source
//	nodes 1..R        residents, in input order
//	nodes R+1..R+D    call days, ascending by date
//	node R+D+1        sink
//
//	source → resident   capacity = call slots left for the window
//	resident → day      capacity 1 for every eligible pair
//	day → sink          capacity = residents required that day
//
// A schedule that cannot be fully staffed is still a Result: Infeasible is
// set and Unmet lists the understaffed days. Only malformed input fails.
package assign
