package graph

import "container/heap"

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoOrder returns a deterministic topological ordering of node indices
// using Kahn's algorithm with a min-heap ready queue, so ties resolve to the
// lexicographically smallest task ID.
//
// Nodes inside or downstream of a cycle never reach in-degree zero and are
// absent from the result; callers treat the returned order as the acyclic
// portion of the graph.
func (g *Graph) topoOrder() []int {
	indeg := make([]int, len(g.indeg))
	copy(indeg, g.indeg)

	ready := &intMinHeap{}
	heap.Init(ready)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(indeg))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range g.outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

// levels assigns each ordered node a depth: 0 for roots, otherwise one more
// than the deepest predecessor. Depth counts hops, not duration. Nodes
// outside the order keep level -1.
func (g *Graph) levels(order []int) []int {
	level := make([]int, len(g.nodes))
	for i := range level {
		level[i] = -1
	}
	for _, u := range order {
		max := 0
		for _, p := range g.incoming[u] {
			if level[p] >= 0 && level[p]+1 > max {
				max = level[p] + 1
			}
		}
		level[u] = max
	}
	return level
}
