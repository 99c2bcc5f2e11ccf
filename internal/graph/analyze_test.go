package graph

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

func pendingTask(id string) domain.Task {
	return domain.Task{
		ID:         id,
		Status:     domain.StatusPending,
		Priority:   domain.PriorityMedium,
		Complexity: domain.ComplexityModerate,
	}
}

func blocks(from, to string) domain.DependencyEdge {
	return domain.DependencyEdge{DependencyID: from, DependentID: to, Type: domain.DependencyBlocks}
}

func TestAnalyze_LinearChain_CriticalPath(t *testing.T) {
	g := Build(
		[]domain.Task{pendingTask("A"), pendingTask("B"), pendingTask("C")},
		[]domain.DependencyEdge{blocks("A", "B"), blocks("B", "C")},
	)

	a := g.Analyze()
	if a.HasCycles {
		t.Fatal("linear chain reported cycles")
	}
	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(a.CriticalPath, want) {
		t.Fatalf("critical path mismatch: got %v want %v", a.CriticalPath, want)
	}
	// Three moderate tasks with no estimates default to 8h each.
	if a.EstimatedDurationHours != 24 {
		t.Fatalf("estimated duration = %v, want 24", a.EstimatedDurationHours)
	}
}

func TestAnalyze_TwoNodeCycle(t *testing.T) {
	g := Build(
		[]domain.Task{pendingTask("X"), pendingTask("Y")},
		[]domain.DependencyEdge{blocks("X", "Y"), blocks("Y", "X")},
	)

	a := g.Analyze()
	if !a.HasCycles {
		t.Fatal("cycle not detected")
	}
	if want := [][]string{{"X", "Y"}}; !reflect.DeepEqual(a.Cycles, want) {
		t.Fatalf("cycles mismatch: got %v want %v", a.Cycles, want)
	}
	if len(a.CriticalPath) != 0 {
		t.Fatalf("critical path should be empty for a fully cyclic graph, got %v", a.CriticalPath)
	}
	if a.EstimatedDurationHours != 0 {
		t.Fatalf("estimated duration = %v, want 0", a.EstimatedDurationHours)
	}
}

func TestAnalyze_SelfLoopIsCycle(t *testing.T) {
	g := Build(
		[]domain.Task{pendingTask("A"), pendingTask("B")},
		[]domain.DependencyEdge{blocks("A", "A"), blocks("A", "B")},
	)

	a := g.Analyze()
	if !a.HasCycles {
		t.Fatal("self-loop not reported as cycle")
	}
	if want := [][]string{{"A"}}; !reflect.DeepEqual(a.Cycles, want) {
		t.Fatalf("cycles mismatch: got %v want %v", a.Cycles, want)
	}
}

func TestAnalyze_CycleDegradesOnlyAffectedNodes(t *testing.T) {
	// X and Y form a cycle; A -> B is independent and stays analyzable.
	g := Build(
		[]domain.Task{pendingTask("A"), pendingTask("B"), pendingTask("X"), pendingTask("Y")},
		[]domain.DependencyEdge{blocks("A", "B"), blocks("X", "Y"), blocks("Y", "X")},
	)

	a := g.Analyze()
	if !a.HasCycles {
		t.Fatal("cycle not detected")
	}
	if want := []string{"A", "B"}; !reflect.DeepEqual(a.CriticalPath, want) {
		t.Fatalf("critical path should cover the acyclic portion: got %v want %v", a.CriticalPath, want)
	}
	if a.EstimatedDurationHours != 16 {
		t.Fatalf("estimated duration = %v, want 16", a.EstimatedDurationHours)
	}
}

func TestAnalyze_CriticalPath_TakesLongestBranch(t *testing.T) {
	slow := pendingTask("B")
	slow.Complexity = domain.ComplexityComplex // 24h default
	fast := pendingTask("C")
	fast.Complexity = domain.ComplexitySimple // 2h default

	g := Build(
		[]domain.Task{pendingTask("A"), slow, fast, pendingTask("D")},
		[]domain.DependencyEdge{blocks("A", "B"), blocks("A", "C"), blocks("B", "D"), blocks("C", "D")},
	)

	a := g.Analyze()
	if want := []string{"A", "B", "D"}; !reflect.DeepEqual(a.CriticalPath, want) {
		t.Fatalf("critical path mismatch: got %v want %v", a.CriticalPath, want)
	}
	if a.EstimatedDurationHours != 8+24+8 {
		t.Fatalf("estimated duration = %v, want 40", a.EstimatedDurationHours)
	}
}

func TestAnalyze_CriticalPath_ExplicitEstimateWins(t *testing.T) {
	est := 100.0
	long := pendingTask("C")
	long.Complexity = domain.ComplexitySimple
	long.EstimatedHours = &est

	g := Build(
		[]domain.Task{pendingTask("A"), pendingTask("B"), long, pendingTask("D")},
		[]domain.DependencyEdge{blocks("A", "B"), blocks("A", "C"), blocks("B", "D"), blocks("C", "D")},
	)

	a := g.Analyze()
	if want := []string{"A", "C", "D"}; !reflect.DeepEqual(a.CriticalPath, want) {
		t.Fatalf("critical path mismatch: got %v want %v", a.CriticalPath, want)
	}
	if a.EstimatedDurationHours != 8+100+8 {
		t.Fatalf("estimated duration = %v, want 116", a.EstimatedDurationHours)
	}
}

func TestAnalyze_SingleNodePath(t *testing.T) {
	g := Build([]domain.Task{pendingTask("solo")}, nil)

	a := g.Analyze()
	if want := []string{"solo"}; !reflect.DeepEqual(a.CriticalPath, want) {
		t.Fatalf("critical path mismatch: got %v want %v", a.CriticalPath, want)
	}
	if a.EstimatedDurationHours != 8 {
		t.Fatalf("estimated duration = %v, want 8", a.EstimatedDurationHours)
	}
}

func TestAnalyze_EmptyGraph(t *testing.T) {
	a := Build(nil, nil).Analyze()
	if a.HasCycles {
		t.Fatal("empty graph reported cycles")
	}
	if len(a.CriticalPath) != 0 || a.EstimatedDurationHours != 0 {
		t.Fatalf("empty graph should produce empty analysis, got %+v", a)
	}
}

func TestAnalyze_ParallelGroups_DiamondMiddle(t *testing.T) {
	g := Build(
		[]domain.Task{pendingTask("A"), pendingTask("B"), pendingTask("C"), pendingTask("D")},
		[]domain.DependencyEdge{blocks("A", "B"), blocks("A", "C"), blocks("B", "D"), blocks("C", "D")},
	)

	a := g.Analyze()
	// Only the middle level has two members; single-member levels are not groups.
	if want := [][]string{{"B", "C"}}; !reflect.DeepEqual(a.ParallelGroups, want) {
		t.Fatalf("parallel groups mismatch: got %v want %v", a.ParallelGroups, want)
	}
}

func TestAnalyze_ParallelGroups_IndependentRoots(t *testing.T) {
	g := Build(
		[]domain.Task{pendingTask("A"), pendingTask("B"), pendingTask("C")},
		nil,
	)

	a := g.Analyze()
	if want := [][]string{{"A", "B", "C"}}; !reflect.DeepEqual(a.ParallelGroups, want) {
		t.Fatalf("parallel groups mismatch: got %v want %v", a.ParallelGroups, want)
	}
}

func TestAnalyze_Bottlenecks_DegreeThreshold(t *testing.T) {
	tasks := []domain.Task{pendingTask("hub"), pendingTask("a"), pendingTask("b"), pendingTask("c"), pendingTask("sink")}
	edges := []domain.DependencyEdge{
		blocks("hub", "a"), blocks("hub", "b"), blocks("hub", "c"),
		blocks("a", "sink"), blocks("b", "sink"), blocks("c", "sink"),
	}

	a := Build(tasks, edges).Analyze()
	// hub has out-degree 3, sink has in-degree 3; the middle nodes have degree 2.
	if want := []string{"hub", "sink"}; !reflect.DeepEqual(a.Bottlenecks, want) {
		t.Fatalf("bottlenecks mismatch: got %v want %v", a.Bottlenecks, want)
	}
}

func TestAnalyze_Risk_CircularDependency(t *testing.T) {
	g := Build(
		[]domain.Task{pendingTask("X"), pendingTask("Y")},
		[]domain.DependencyEdge{blocks("X", "Y"), blocks("Y", "X")},
	)

	risks := g.Analyze().Risks
	found := findRisk(risks, RiskCircularDependency)
	if found == nil {
		t.Fatal("circular_dependency risk missing")
	}
	if found.Severity != SeverityCritical {
		t.Fatalf("severity = %s, want critical", found.Severity)
	}
	if want := []string{"X", "Y"}; !reflect.DeepEqual(found.TaskIDs, want) {
		t.Fatalf("risk task IDs mismatch: got %v want %v", found.TaskIDs, want)
	}
}

func TestAnalyze_Risk_SinglePointOfFailure(t *testing.T) {
	tasks := []domain.Task{pendingTask("gate")}
	edges := make([]domain.DependencyEdge, 0, 6)
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("dep%d", i)
		tasks = append(tasks, pendingTask(id))
		edges = append(edges, blocks("gate", id))
	}

	risks := Build(tasks, edges).Analyze().Risks
	found := findRisk(risks, RiskSinglePointOfFailure)
	if found == nil {
		t.Fatal("single_point_of_failure risk missing for out-degree 6")
	}
	if found.Severity != SeverityHigh {
		t.Fatalf("severity = %s, want high", found.Severity)
	}
	if want := []string{"gate"}; !reflect.DeepEqual(found.TaskIDs, want) {
		t.Fatalf("risk task IDs mismatch: got %v want %v", found.TaskIDs, want)
	}
}

func TestAnalyze_Risk_SinglePointOfFailure_NotAtFive(t *testing.T) {
	tasks := []domain.Task{pendingTask("gate")}
	edges := make([]domain.DependencyEdge, 0, 5)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("dep%d", i)
		tasks = append(tasks, pendingTask(id))
		edges = append(edges, blocks("gate", id))
	}

	risks := Build(tasks, edges).Analyze().Risks
	if findRisk(risks, RiskSinglePointOfFailure) != nil {
		t.Fatal("out-degree 5 should not be a single point of failure")
	}
}

func TestAnalyze_Risk_UnassignedCriticalTasks(t *testing.T) {
	assigned := pendingTask("B")
	assigned.Assignee = "dana"

	g := Build(
		[]domain.Task{pendingTask("A"), assigned, pendingTask("C")},
		[]domain.DependencyEdge{blocks("A", "B"), blocks("B", "C")},
	)

	found := findRisk(g.Analyze().Risks, RiskUnassignedCriticalTasks)
	if found == nil {
		t.Fatal("unassigned_critical_tasks risk missing")
	}
	if found.Severity != SeverityMedium {
		t.Fatalf("severity = %s, want medium", found.Severity)
	}
	if want := []string{"A", "C"}; !reflect.DeepEqual(found.TaskIDs, want) {
		t.Fatalf("risk task IDs mismatch: got %v want %v", found.TaskIDs, want)
	}
}

func TestAnalyze_Risk_MissingEstimates(t *testing.T) {
	est := 40.0
	epicEstimated := pendingTask("planned")
	epicEstimated.Complexity = domain.ComplexityEpic
	epicEstimated.EstimatedHours = &est
	epicBare := pendingTask("unplanned")
	epicBare.Complexity = domain.ComplexityEpic
	simpleBare := pendingTask("small")
	simpleBare.Complexity = domain.ComplexitySimple

	risks := Build([]domain.Task{epicEstimated, epicBare, simpleBare}, nil).Analyze().Risks
	found := findRisk(risks, RiskMissingEstimates)
	if found == nil {
		t.Fatal("missing_estimates risk missing")
	}
	if want := []string{"unplanned"}; !reflect.DeepEqual(found.TaskIDs, want) {
		t.Fatalf("risk task IDs mismatch: got %v want %v", found.TaskIDs, want)
	}
}

func TestAnalyze_Risk_LongDependencyChain(t *testing.T) {
	const chainLen = 12 // 11 hops
	tasks := make([]domain.Task, 0, chainLen)
	edges := make([]domain.DependencyEdge, 0, chainLen-1)
	for i := 0; i < chainLen; i++ {
		id := fmt.Sprintf("t%02d", i)
		tasks = append(tasks, pendingTask(id))
		if i > 0 {
			edges = append(edges, blocks(fmt.Sprintf("t%02d", i-1), id))
		}
	}

	risks := Build(tasks, edges).Analyze().Risks
	found := findRisk(risks, RiskLongDependencyChain)
	if found == nil {
		t.Fatal("long_dependency_chain risk missing for 11 hops")
	}
	if len(found.TaskIDs) != chainLen {
		t.Fatalf("chain length = %d, want %d", len(found.TaskIDs), chainLen)
	}
}

func TestAnalyze_Risk_LongDependencyChain_NotAtTenHops(t *testing.T) {
	const chainLen = 11 // exactly 10 hops
	tasks := make([]domain.Task, 0, chainLen)
	edges := make([]domain.DependencyEdge, 0, chainLen-1)
	for i := 0; i < chainLen; i++ {
		id := fmt.Sprintf("t%02d", i)
		tasks = append(tasks, pendingTask(id))
		if i > 0 {
			edges = append(edges, blocks(fmt.Sprintf("t%02d", i-1), id))
		}
	}

	risks := Build(tasks, edges).Analyze().Risks
	if findRisk(risks, RiskLongDependencyChain) != nil {
		t.Fatal("10 hops should not trigger long_dependency_chain")
	}
}

func findRisk(risks []RiskFactor, typ string) *RiskFactor {
	for i := range risks {
		if risks[i].Type == typ {
			return &risks[i]
		}
	}
	return nil
}
