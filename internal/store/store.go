// Package store persists tasks, dependency edges and workflow triggers.
// Postgres is the production backend; Memory serves tests and single-node
// deployments.
package store

import (
	"context"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

// TaskStore is the task and dependency-edge boundary consumed by the graph
// engine. ListTasks and ListDependencyEdges take a project filter; the empty
// string means all projects.
type TaskStore interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	ListTasks(ctx context.Context, project string) ([]domain.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status domain.Status) error
	CreateDependency(ctx context.Context, edge *domain.DependencyEdge) error
	ListDependencyEdges(ctx context.Context, project string) ([]domain.DependencyEdge, error)
}

// TriggerStore is the workflow-trigger boundary consumed by the orchestrator
// and the reconciler sweep.
type TriggerStore interface {
	CreateTrigger(ctx context.Context, trigger *domain.WorkflowTrigger) error
	GetTrigger(ctx context.Context, id string) (*domain.WorkflowTrigger, error)
	UpdateTrigger(ctx context.Context, trigger *domain.WorkflowTrigger) error
	ListPendingTriggers(ctx context.Context, limit int) ([]*domain.WorkflowTrigger, error)
	ListTriggersByTask(ctx context.Context, taskID string) ([]*domain.WorkflowTrigger, error)
	RecordExecution(ctx context.Context, exec *domain.TriggerExecution) error
}

// Store bundles both sides for components needing the full surface.
type Store interface {
	TaskStore
	TriggerStore
}
