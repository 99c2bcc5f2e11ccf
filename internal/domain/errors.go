package domain

import "fmt"

// TaskNotFoundError is returned when a task ID does not exist.
type TaskNotFoundError struct {
	TaskID string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// TriggerNotFoundError is returned when a trigger ID does not exist.
type TriggerNotFoundError struct {
	TriggerID string
}

func (e *TriggerNotFoundError) Error() string {
	return fmt.Sprintf("trigger not found: %s", e.TriggerID)
}

// InvalidTriggerTypeError is returned when no executor is registered for a
// trigger type.
type InvalidTriggerTypeError struct {
	Type TriggerType
}

func (e *InvalidTriggerTypeError) Error() string {
	return fmt.Sprintf("no executor registered for trigger type %q", e.Type)
}

// ConfigValidationError is returned when a trigger config payload fails
// validation for its declared type.
type ConfigValidationError struct {
	Type   TriggerType
	Field  string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s trigger config: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid %s trigger config: field %q %s", e.Type, e.Field, e.Reason)
}

// InvalidTransitionError is returned when a lifecycle operation is applied to
// a trigger whose current status does not permit it.
type InvalidTransitionError struct {
	TriggerID string
	From      TriggerStatus
	To        TriggerStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("trigger %s cannot move from %s to %s", e.TriggerID, e.From, e.To)
}

// RetryExhaustedError is returned when a retry is requested for a trigger
// that has already consumed its retry budget.
type RetryExhaustedError struct {
	TriggerID  string
	MaxRetries int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("trigger %s exhausted retry budget of %d", e.TriggerID, e.MaxRetries)
}

// UnauthorizedApproverError is returned when an approval decision comes from
// an identity the trigger config does not allow.
type UnauthorizedApproverError struct {
	TriggerID string
	Approver  string
}

func (e *UnauthorizedApproverError) Error() string {
	return fmt.Sprintf("approver %q is not allowed for trigger %s", e.Approver, e.TriggerID)
}

// InvalidDependencyError is returned when a dependency edge cannot be
// stored, e.g. a self-loop.
type InvalidDependencyError struct {
	DependencyID string
	DependentID  string
	Reason       string
}

func (e *InvalidDependencyError) Error() string {
	return fmt.Sprintf("invalid dependency %s -> %s: %s", e.DependencyID, e.DependentID, e.Reason)
}

// CycleError is returned when an operation requires an acyclic graph but the
// snapshot contains one or more dependency cycles.
type CycleError struct {
	Cycles [][]string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency graph contains %d cycle(s)", len(e.Cycles))
}
