package graph

import (
	"reflect"
	"testing"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

func taskWith(id string, p domain.Priority, c domain.Complexity) domain.Task {
	t := pendingTask(id)
	t.Priority = p
	t.Complexity = c
	return t
}

func TestSuggestOrdering_NeverPrecedesDependencies(t *testing.T) {
	tasks := []domain.Task{
		taskWith("a", domain.PriorityLow, domain.ComplexitySimple),
		taskWith("b", domain.PriorityCritical, domain.ComplexityEpic),
		taskWith("c", domain.PriorityHigh, domain.ComplexityModerate),
		taskWith("d", domain.PriorityMedium, domain.ComplexitySimple),
		taskWith("e", domain.PriorityCritical, domain.ComplexitySimple),
	}
	edges := []domain.DependencyEdge{
		blocks("a", "b"), blocks("a", "c"), blocks("b", "d"),
		blocks("c", "d"), blocks("c", "e"),
	}

	order := Build(tasks, edges).SuggestOrdering()
	if len(order) != len(tasks) {
		t.Fatalf("ordering covers %d of %d tasks", len(order), len(tasks))
	}
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range edges {
		if pos[e.DependencyID] >= pos[e.DependentID] {
			t.Fatalf("%s ordered at %d but its dependency %s at %d",
				e.DependentID, pos[e.DependentID], e.DependencyID, pos[e.DependencyID])
		}
	}
}

func TestSuggestOrdering_PriorityWinsWithinLevel(t *testing.T) {
	tasks := []domain.Task{
		taskWith("low", domain.PriorityLow, domain.ComplexityModerate),
		taskWith("crit", domain.PriorityCritical, domain.ComplexityModerate),
		taskWith("med", domain.PriorityMedium, domain.ComplexityModerate),
	}

	order := Build(tasks, nil).SuggestOrdering()
	if want := []string{"crit", "med", "low"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("ordering mismatch: got %v want %v", order, want)
	}
}

func TestSuggestOrdering_SimplerTasksFirstOnEqualPriority(t *testing.T) {
	tasks := []domain.Task{
		taskWith("epic", domain.PriorityHigh, domain.ComplexityEpic),
		taskWith("easy", domain.PriorityHigh, domain.ComplexitySimple),
	}

	order := Build(tasks, nil).SuggestOrdering()
	if want := []string{"easy", "epic"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("ordering mismatch: got %v want %v", order, want)
	}
}

func TestSuggestOrdering_PriorityOutweighsComplexity(t *testing.T) {
	// 0.6*4 + 0.4*1 = 2.8 for the critical epic, 0.6*1 + 0.4*4 = 2.2 for
	// the low-priority simple task.
	tasks := []domain.Task{
		taskWith("trivial", domain.PriorityLow, domain.ComplexitySimple),
		taskWith("urgent", domain.PriorityCritical, domain.ComplexityEpic),
	}

	order := Build(tasks, nil).SuggestOrdering()
	if want := []string{"urgent", "trivial"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("ordering mismatch: got %v want %v", order, want)
	}
}

func TestSuggestOrdering_DependencyOutranksScore(t *testing.T) {
	// The critical task depends on a low-priority one; the dependency must
	// still come first.
	tasks := []domain.Task{
		taskWith("setup", domain.PriorityLow, domain.ComplexityEpic),
		taskWith("launch", domain.PriorityCritical, domain.ComplexitySimple),
	}

	order := Build(tasks, []domain.DependencyEdge{blocks("setup", "launch")}).SuggestOrdering()
	if want := []string{"setup", "launch"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("ordering mismatch: got %v want %v", order, want)
	}
}

func TestSuggestOrdering_OmitsCyclicNodes(t *testing.T) {
	tasks := []domain.Task{pendingTask("A"), pendingTask("X"), pendingTask("Y")}
	edges := []domain.DependencyEdge{blocks("X", "Y"), blocks("Y", "X")}

	order := Build(tasks, edges).SuggestOrdering()
	if want := []string{"A"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("cyclic nodes should be omitted: got %v want %v", order, want)
	}
}

func TestSuggestOrdering_EmptyGraph(t *testing.T) {
	if got := Build(nil, nil).SuggestOrdering(); got != nil {
		t.Fatalf("empty graph ordering = %v, want nil", got)
	}
}

func TestSuggestOrdering_IDBreaksFullTies(t *testing.T) {
	tasks := []domain.Task{
		taskWith("zeta", domain.PriorityMedium, domain.ComplexityModerate),
		taskWith("alpha", domain.PriorityMedium, domain.ComplexityModerate),
	}

	order := Build(tasks, nil).SuggestOrdering()
	if want := []string{"alpha", "zeta"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("ordering mismatch: got %v want %v", order, want)
	}
}
