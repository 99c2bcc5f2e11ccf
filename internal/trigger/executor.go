package trigger

import (
	"context"
	"sync"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

// Outcome is an executor's report: the status the trigger lands in and the
// result payload to persist.
type Outcome struct {
	Status domain.TriggerStatus
	Result *domain.TriggerResult
}

// Executor runs one trigger type's workflow strategy.
type Executor interface {
	Execute(ctx context.Context, task *domain.Task, trg *domain.WorkflowTrigger) (*Outcome, error)
	TriggerType() domain.TriggerType
}

// Registry maps trigger types to their executors.
type Registry struct {
	mu        sync.RWMutex
	executors map[domain.TriggerType]Executor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[domain.TriggerType]Executor)}
}

// Register adds an executor. Safe to call concurrently.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[e.TriggerType()] = e
}

// Get returns the executor for the given trigger type.
// Returns InvalidTriggerTypeError if none is registered.
func (r *Registry) Get(t domain.TriggerType) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[t]
	if !ok {
		return nil, &domain.InvalidTriggerTypeError{Type: t}
	}
	return e, nil
}
