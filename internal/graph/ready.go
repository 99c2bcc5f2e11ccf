package graph

import (
	"sort"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

// ReadyTasks returns the IDs of tasks eligible to start: status is neither
// completed nor in_progress and every dependency has completed. The result
// is sorted by task ID.
//
// The ready set is a pure function of the snapshot and is recomputed on
// every call; callers must rebuild the graph after task status changes
// rather than reuse a stale instance.
func (g *Graph) ReadyTasks() []string {
	ready := make([]string, 0)
	for i, n := range g.nodes {
		if n.Status == domain.StatusCompleted || n.Status == domain.StatusInProgress {
			continue
		}
		depsOK := true
		for _, p := range g.incoming[i] {
			if g.nodes[p].Status != domain.StatusCompleted {
				depsOK = false
				break
			}
		}
		if depsOK {
			ready = append(ready, n.ID)
		}
	}
	sort.Strings(ready)
	return ready
}
