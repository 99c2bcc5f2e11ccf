package graph

import (
	"fmt"
	"sort"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

// RiskSeverity ranks how urgently a risk factor needs attention.
type RiskSeverity string

const (
	SeverityLow      RiskSeverity = "low"
	SeverityMedium   RiskSeverity = "medium"
	SeverityHigh     RiskSeverity = "high"
	SeverityCritical RiskSeverity = "critical"
)

// Risk factor types reported by Analyze.
const (
	RiskCircularDependency      = "circular_dependency"
	RiskSinglePointOfFailure    = "single_point_of_failure"
	RiskUnassignedCriticalTasks = "unassigned_critical_tasks"
	RiskMissingEstimates        = "missing_estimates"
	RiskLongDependencyChain     = "long_dependency_chain"
)

const (
	bottleneckDegree = 3
	spofOutDegree    = 5
	longChainHops    = 10
)

// RiskFactor describes one detected project risk and the tasks it touches.
type RiskFactor struct {
	Type        string       `json:"type"`
	Severity    RiskSeverity `json:"severity"`
	Description string       `json:"description"`
	TaskIDs     []string     `json:"task_ids"`
}

// Analysis is the full result of analyzing one graph snapshot.
//
// When cycles exist the analysis degrades rather than fails: HasCycles is
// set, each cycle is reported, and the critical path, parallel groups and
// ordering cover only the acyclic portion reachable without passing through
// a cycle.
type Analysis struct {
	HasCycles              bool         `json:"has_cycles"`
	Cycles                 [][]string   `json:"cycles,omitempty"`
	CriticalPath           []string     `json:"critical_path"`
	EstimatedDurationHours float64      `json:"estimated_duration_hours"`
	ParallelGroups         [][]string   `json:"parallel_groups,omitempty"`
	Bottlenecks            []string     `json:"bottlenecks,omitempty"`
	Risks                  []RiskFactor `json:"risks,omitempty"`
}

// Analyze computes cycles, critical path, parallelizable groups, bottlenecks
// and risk factors for the snapshot. It never fails: empty and cyclic graphs
// produce a degraded but well-formed result.
func (g *Graph) Analyze() *Analysis {
	cycles := g.cycles()
	order := g.topoOrder()
	level := g.levels(order)
	path, duration := g.criticalPath(order)
	chain := g.longestChain(order, level)
	bottlenecks := g.bottlenecks()

	a := &Analysis{
		HasCycles:              len(cycles) > 0,
		Cycles:                 cycles,
		CriticalPath:           path,
		EstimatedDurationHours: duration,
		ParallelGroups:         g.parallelGroups(order, level),
		Bottlenecks:            bottlenecks,
	}
	a.Risks = g.risks(cycles, path, bottlenecks, chain)
	return a
}

// cycles returns every dependency cycle as a sorted set of task IDs. A cycle
// is a strongly connected component with two or more members, or a single
// node with a self-loop.
func (g *Graph) cycles() [][]string {
	var cycles [][]string
	for _, comp := range g.stronglyConnected() {
		if len(comp) == 1 && !g.selfLoop[comp[0]] {
			continue
		}
		sort.Ints(comp)
		cycles = append(cycles, g.idsOf(comp))
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// stronglyConnected runs Tarjan's algorithm and returns the strongly
// connected components as index sets.
func (g *Graph) stronglyConnected() [][]int {
	n := len(g.nodes)
	index := make([]int, n) // 0 means unvisited
	low := make([]int, n)
	onStack := make([]bool, n)
	stack := make([]int, 0, n)
	next := 0
	var comps [][]int

	var connect func(v int)
	connect = func(v int) {
		next++
		index[v] = next
		low[v] = next
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.outgoing[v] {
			if index[w] == 0 {
				connect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] && index[w] < low[v] {
				low[v] = index[w]
			}
		}

		if low[v] == index[v] {
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			comps = append(comps, comp)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == 0 {
			connect(v)
		}
	}
	return comps
}

// criticalPath computes the longest duration-weighted chain over the acyclic
// portion by dynamic programming in topological order. A node's distance is
// its own duration plus the best predecessor distance, so the reported total
// equals the sum of member durations. Predecessor ties prefer the heavier
// edge type, then the smaller task ID.
func (g *Graph) criticalPath(order []int) ([]string, float64) {
	if len(order) == 0 {
		return nil, 0
	}

	dist := make([]float64, len(g.nodes))
	prev := make([]int, len(g.nodes))
	ordered := make([]bool, len(g.nodes))
	for i := range prev {
		prev[i] = -1
	}
	for _, u := range order {
		ordered[u] = true
	}

	end := -1
	for _, u := range order {
		bestPred := -1
		bestDist, bestWeight := 0.0, 0.0
		for k, p := range g.incoming[u] {
			if !ordered[p] {
				continue
			}
			w := g.inWeight[u][k]
			if bestPred == -1 || dist[p] > bestDist || (dist[p] == bestDist && w > bestWeight) {
				bestPred, bestDist, bestWeight = p, dist[p], w
			}
		}
		dist[u] = g.duration(u) + bestDist
		prev[u] = bestPred
		if end == -1 || dist[u] > dist[end] || (dist[u] == dist[end] && u < end) {
			end = u
		}
	}

	var rev []int
	for cur := end; cur != -1; cur = prev[cur] {
		rev = append(rev, cur)
	}
	path := make([]string, len(rev))
	for i, idx := range rev {
		path[len(rev)-1-i] = g.nodes[idx].ID
	}
	return path, dist[end]
}

// parallelGroups buckets ordered nodes by level and returns the groups with
// two or more members, shallowest first. Same-level tasks cannot depend on
// each other, so each group may start concurrently once its predecessors
// finish. This ignores assignees and resource contention; it is an upper
// bound on parallelism, not a schedule.
func (g *Graph) parallelGroups(order, level []int) [][]string {
	byLevel := make(map[int][]int)
	for _, u := range order {
		byLevel[level[u]] = append(byLevel[level[u]], u)
	}

	keys := make([]int, 0, len(byLevel))
	for l := range byLevel {
		keys = append(keys, l)
	}
	sort.Ints(keys)

	var groups [][]string
	for _, l := range keys {
		members := byLevel[l]
		if len(members) < 2 {
			continue
		}
		sort.Ints(members)
		groups = append(groups, g.idsOf(members))
	}
	return groups
}

// longestChain reconstructs the deepest chain by hop count, used for the
// long-dependency-chain risk.
func (g *Graph) longestChain(order, level []int) []string {
	end := -1
	for _, u := range order {
		if end == -1 || level[u] > level[end] || (level[u] == level[end] && u < end) {
			end = u
		}
	}
	if end == -1 {
		return nil
	}

	rev := []int{end}
	for cur := end; level[cur] > 0; {
		next := -1
		for _, p := range g.incoming[cur] {
			if level[p] == level[cur]-1 {
				next = p // incoming is sorted; first hit is the smallest ID
				break
			}
		}
		if next == -1 {
			break
		}
		rev = append(rev, next)
		cur = next
	}

	chain := make([]string, len(rev))
	for i, idx := range rev {
		chain[len(rev)-1-i] = g.nodes[idx].ID
	}
	return chain
}

// bottlenecks returns the IDs of nodes whose in-degree or out-degree reaches
// the fixed threshold, sorted ascending.
func (g *Graph) bottlenecks() []string {
	var hits []int
	for i := range g.nodes {
		if g.indeg[i] >= bottleneckDegree || g.outdeg[i] >= bottleneckDegree {
			hits = append(hits, i)
		}
	}
	return g.idsOf(hits)
}

func (g *Graph) risks(cycles [][]string, path, bottlenecks, chain []string) []RiskFactor {
	var risks []RiskFactor

	for _, c := range cycles {
		risks = append(risks, RiskFactor{
			Type:        RiskCircularDependency,
			Severity:    SeverityCritical,
			Description: fmt.Sprintf("%d tasks form a dependency cycle", len(c)),
			TaskIDs:     c,
		})
	}

	for _, id := range bottlenecks {
		i := g.index[id]
		if g.outdeg[i] > spofOutDegree {
			risks = append(risks, RiskFactor{
				Type:        RiskSinglePointOfFailure,
				Severity:    SeverityHigh,
				Description: fmt.Sprintf("task %s gates %d downstream tasks", id, g.outdeg[i]),
				TaskIDs:     []string{id},
			})
		}
	}

	var unassigned []string
	for _, id := range path {
		if t, ok := g.Task(id); ok && t.Assignee == "" {
			unassigned = append(unassigned, id)
		}
	}
	if len(unassigned) > 0 {
		risks = append(risks, RiskFactor{
			Type:        RiskUnassignedCriticalTasks,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("%d critical-path tasks have no assignee", len(unassigned)),
			TaskIDs:     unassigned,
		})
	}

	var missing []string
	for _, n := range g.nodes {
		heavy := n.Complexity == domain.ComplexityComplex || n.Complexity == domain.ComplexityEpic
		if heavy && n.EstimatedHours == nil {
			missing = append(missing, n.ID)
		}
	}
	if len(missing) > 0 {
		risks = append(risks, RiskFactor{
			Type:        RiskMissingEstimates,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("%d complex tasks have no duration estimate", len(missing)),
			TaskIDs:     missing,
		})
	}

	if hops := len(chain) - 1; hops > longChainHops {
		risks = append(risks, RiskFactor{
			Type:        RiskLongDependencyChain,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("dependency chain of %d hops exceeds %d", hops, longChainHops),
			TaskIDs:     chain,
		})
	}

	return risks
}
