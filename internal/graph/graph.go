// Package graph implements pure, in-memory dependency analysis over a
// snapshot of tasks and edges: cycle detection, critical path, parallel
// groups, bottlenecks, risk factors, ready-set and ordering queries.
//
// A Graph is immutable once built and safe for concurrent reads. It holds
// no reference to the store; callers rebuild it from a fresh snapshot
// whenever task state may have changed.
package graph

import (
	"sort"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

type edgeIndex struct {
	from int
	to   int
}

// Graph is a directed dependency graph over a task snapshot, indexed by
// canonical position (tasks sorted by ID) rather than pointer links.
type Graph struct {
	nodes []domain.Task  // canonical order: sorted by ID
	index map[string]int // task ID -> canonical index

	edges    []edgeIndex // canonical order, deduplicated
	weights  []float64   // by edge position, from the dependency type
	outgoing [][]int     // by canonical index, sorted ascending
	incoming [][]int     // by canonical index, sorted ascending
	inWeight [][]float64 // aligned with incoming
	indeg    []int
	outdeg   []int
	selfLoop []bool
}

// Build constructs a Graph from a task snapshot and its dependency edges.
// An edge runs dependency -> dependent: the from side must complete before
// the to side may start.
//
// Bad input degrades instead of failing: edges referencing unknown tasks are
// dropped, duplicate edges collapse to the first occurrence, and self-loops
// and cycles are kept so Analyze can report them.
func Build(tasks []domain.Task, edges []domain.DependencyEdge) *Graph {
	nodes := make([]domain.Task, len(tasks))
	copy(nodes, tasks)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	type weightedEdge struct {
		edgeIndex
		weight float64
	}
	mapped := make([]weightedEdge, 0, len(edges))
	seen := make(map[edgeIndex]struct{}, len(edges))
	for _, e := range edges {
		from, okFrom := index[e.DependencyID]
		to, okTo := index[e.DependentID]
		if !okFrom || !okTo {
			continue
		}
		pair := edgeIndex{from: from, to: to}
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		mapped = append(mapped, weightedEdge{edgeIndex: pair, weight: e.Type.Weight()})
	}
	sort.Slice(mapped, func(i, j int) bool {
		a, b := mapped[i], mapped[j]
		if a.from != b.from {
			return a.from < b.from
		}
		return a.to < b.to
	})

	g := &Graph{
		nodes:    nodes,
		index:    index,
		edges:    make([]edgeIndex, 0, len(mapped)),
		weights:  make([]float64, 0, len(mapped)),
		outgoing: make([][]int, len(nodes)),
		incoming: make([][]int, len(nodes)),
		inWeight: make([][]float64, len(nodes)),
		indeg:    make([]int, len(nodes)),
		outdeg:   make([]int, len(nodes)),
		selfLoop: make([]bool, len(nodes)),
	}
	for _, e := range mapped {
		g.edges = append(g.edges, e.edgeIndex)
		g.weights = append(g.weights, e.weight)
		g.outgoing[e.from] = append(g.outgoing[e.from], e.to)
		g.incoming[e.to] = append(g.incoming[e.to], e.from)
		g.inWeight[e.to] = append(g.inWeight[e.to], e.weight)
		g.indeg[e.to]++
		g.outdeg[e.from]++
		if e.from == e.to {
			g.selfLoop[e.from] = true
		}
	}
	return g
}

// Len returns the number of tasks in the snapshot.
func (g *Graph) Len() int { return len(g.nodes) }

// Task returns the snapshot task for an ID.
func (g *Graph) Task(id string) (domain.Task, bool) {
	i, ok := g.index[id]
	if !ok {
		return domain.Task{}, false
	}
	return g.nodes[i], true
}

// TaskIDs returns all task IDs in canonical order.
func (g *Graph) TaskIDs() []string {
	out := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.ID
	}
	return out
}

// Dependencies returns the IDs of the tasks that must complete before the
// given task, sorted ascending. Unknown IDs yield nil.
func (g *Graph) Dependencies(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.idsOf(g.incoming[i])
}

// Dependents returns the IDs of the tasks gated by the given task, sorted
// ascending. Unknown IDs yield nil.
func (g *Graph) Dependents(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.idsOf(g.outgoing[i])
}

func (g *Graph) idsOf(indices []int) []string {
	if len(indices) == 0 {
		return nil
	}
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = g.nodes[idx].ID
	}
	return out
}

func (g *Graph) duration(i int) float64 {
	return g.nodes[i].DurationHours()
}
