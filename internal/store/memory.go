package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

type edgeKey struct {
	from string
	to   string
}

// Memory is an in-process Store with the same semantics as Postgres, for
// tests and single-node deployments.
type Memory struct {
	mu         sync.RWMutex
	tasks      map[string]domain.Task
	edges      map[edgeKey]domain.DependencyEdge
	triggers   map[string]domain.WorkflowTrigger
	executions []domain.TriggerExecution
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tasks:    make(map[string]domain.Task),
		edges:    make(map[edgeKey]domain.DependencyEdge),
		triggers: make(map[string]domain.WorkflowTrigger),
	}
}

// ─── Tasks ───────────────────────────────────────────────────────────────────

func (m *Memory) CreateTask(_ context.Context, task *domain.Task) error {
	applyTaskDefaults(task)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[task.ID]; exists {
		return fmt.Errorf("create task %s: duplicate id", task.ID)
	}
	m.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (m *Memory) GetTask(_ context.Context, id string) (*domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, &domain.TaskNotFoundError{TaskID: id}
	}
	out := cloneTask(task)
	return &out, nil
}

func (m *Memory) ListTasks(_ context.Context, project string) ([]domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tasks []domain.Task
	for _, t := range m.tasks {
		if project != "" && t.Project != project {
			continue
		}
		tasks = append(tasks, cloneTask(t))
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (m *Memory) UpdateTaskStatus(_ context.Context, id string, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return &domain.TaskNotFoundError{TaskID: id}
	}
	task.Status = status
	task.UpdatedAt = time.Now().UTC()
	m.tasks[id] = task
	return nil
}

func (m *Memory) CreateDependency(_ context.Context, edge *domain.DependencyEdge) error {
	if err := validateEdge(edge); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[edge.DependencyID]; !ok {
		return &domain.TaskNotFoundError{TaskID: edge.DependencyID}
	}
	if _, ok := m.tasks[edge.DependentID]; !ok {
		return &domain.TaskNotFoundError{TaskID: edge.DependentID}
	}
	m.edges[edgeKey{from: edge.DependencyID, to: edge.DependentID}] = *edge
	return nil
}

func (m *Memory) ListDependencyEdges(_ context.Context, project string) ([]domain.DependencyEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var edges []domain.DependencyEdge
	for _, e := range m.edges {
		if project != "" {
			if t, ok := m.tasks[e.DependentID]; !ok || t.Project != project {
				continue
			}
		}
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.DependencyID != b.DependencyID {
			return a.DependencyID < b.DependencyID
		}
		return a.DependentID < b.DependentID
	})
	return edges, nil
}

// ─── Triggers ────────────────────────────────────────────────────────────────

func (m *Memory) CreateTrigger(_ context.Context, trigger *domain.WorkflowTrigger) error {
	applyTriggerDefaults(trigger)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.triggers[trigger.ID]; exists {
		return fmt.Errorf("create trigger %s: duplicate id", trigger.ID)
	}
	m.triggers[trigger.ID] = cloneTrigger(*trigger)
	return nil
}

func (m *Memory) GetTrigger(_ context.Context, id string) (*domain.WorkflowTrigger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trg, ok := m.triggers[id]
	if !ok {
		return nil, &domain.TriggerNotFoundError{TriggerID: id}
	}
	out := cloneTrigger(trg)
	return &out, nil
}

func (m *Memory) UpdateTrigger(_ context.Context, trigger *domain.WorkflowTrigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.triggers[trigger.ID]
	if !ok {
		return &domain.TriggerNotFoundError{TriggerID: trigger.ID}
	}

	// Mirror the SQL update: only execution state is mutable.
	trigger.UpdatedAt = time.Now().UTC()
	stored.Status = trigger.Status
	stored.RetryCount = trigger.RetryCount
	stored.ExecutionCount = trigger.ExecutionCount
	stored.Result = append([]byte(nil), trigger.Result...)
	stored.ErrorMessage = trigger.ErrorMessage
	stored.UpdatedAt = trigger.UpdatedAt
	m.triggers[trigger.ID] = stored
	return nil
}

func (m *Memory) ListPendingTriggers(_ context.Context, limit int) ([]*domain.WorkflowTrigger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pending []*domain.WorkflowTrigger
	for _, trg := range m.triggers {
		if trg.Status != domain.TriggerPending {
			continue
		}
		out := cloneTrigger(trg)
		pending = append(pending, &out)
	}
	sort.Slice(pending, func(i, j int) bool {
		a, b := pending[i], pending[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (m *Memory) ListTriggersByTask(_ context.Context, taskID string) ([]*domain.WorkflowTrigger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var triggers []*domain.WorkflowTrigger
	for _, trg := range m.triggers {
		if trg.TaskID != taskID {
			continue
		}
		out := cloneTrigger(trg)
		triggers = append(triggers, &out)
	}
	sort.Slice(triggers, func(i, j int) bool {
		a, b := triggers[i], triggers[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return triggers, nil
}

func (m *Memory) RecordExecution(_ context.Context, exec *domain.TriggerExecution) error {
	if exec.ID == "" {
		exec.ID = fmt.Sprintf("exec-%d", time.Now().UnixNano())
	}
	if exec.ExecutedAt.IsZero() {
		exec.ExecutedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions = append(m.executions, *exec)
	return nil
}

// Executions returns recorded executions for a trigger, oldest first.
// Test helper with no Postgres counterpart in the Store interface.
func (m *Memory) Executions(triggerID string) []domain.TriggerExecution {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.TriggerExecution
	for _, e := range m.executions {
		if e.TriggerID == triggerID {
			out = append(out, e)
		}
	}
	return out
}

func cloneTask(t domain.Task) domain.Task {
	if t.EstimatedHours != nil {
		est := *t.EstimatedHours
		t.EstimatedHours = &est
	}
	return t
}

func cloneTrigger(t domain.WorkflowTrigger) domain.WorkflowTrigger {
	t.Config = append([]byte(nil), t.Config...)
	t.Result = append([]byte(nil), t.Result...)
	return t
}
