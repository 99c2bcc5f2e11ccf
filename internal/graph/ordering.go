package graph

import "sort"

const (
	priorityShare   = 0.6
	complexityShare = 0.4
)

// SuggestOrdering returns task IDs in a dependency-safe execution order that
// prefers urgent and simple work where the graph allows a choice.
//
// Nodes are ranked by topological depth first: every dependency sits at a
// strictly shallower depth than its dependents, so depth-major order can
// never place a task before something it depends on. Within a depth level
// the composite score 0.6*priority + 0.4*complexity sorts descending, with
// task ID as the final tie-break. Tasks caught in a cycle have no safe
// position and are omitted.
func (g *Graph) SuggestOrdering() []string {
	order := g.topoOrder()
	if len(order) == 0 {
		return nil
	}
	level := g.levels(order)

	ranked := make([]int, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if level[a] != level[b] {
			return level[a] < level[b]
		}
		sa, sb := g.score(a), g.score(b)
		if sa != sb {
			return sa > sb
		}
		return a < b
	})

	out := make([]string, len(ranked))
	for i, idx := range ranked {
		out[i] = g.nodes[idx].ID
	}
	return out
}

func (g *Graph) score(i int) float64 {
	n := g.nodes[i]
	return priorityShare*n.Priority.Weight() + complexityShare*n.Complexity.Weight()
}
