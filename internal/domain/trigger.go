package domain

import (
	"encoding/json"
	"time"
)

// TriggerType identifies the workflow strategy a trigger executes with.
type TriggerType string

const (
	TriggerCodegen    TriggerType = "codegen"
	TriggerValidation TriggerType = "validation"
	TriggerWebhook    TriggerType = "webhook"
	TriggerManual     TriggerType = "manual"
	TriggerScheduled  TriggerType = "scheduled"
)

// Valid reports whether t is one of the recognized trigger types.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerCodegen, TriggerValidation, TriggerWebhook, TriggerManual, TriggerScheduled:
		return true
	}
	return false
}

// TriggerStatus represents the lifecycle states of a workflow trigger.
type TriggerStatus string

const (
	TriggerPending         TriggerStatus = "pending"
	TriggerTriggered       TriggerStatus = "triggered"
	TriggerPendingApproval TriggerStatus = "pending_approval"
	TriggerCompleted       TriggerStatus = "completed"
	TriggerFailed          TriggerStatus = "failed"
	TriggerCancelled       TriggerStatus = "cancelled"
)

// IsTerminal returns true for states that end the lifecycle. A failed
// trigger is terminal but may be re-armed through an explicit retry while
// retry budget remains.
func (s TriggerStatus) IsTerminal() bool {
	return s == TriggerCompleted || s == TriggerFailed || s == TriggerCancelled
}

// WorkflowTrigger binds a workflow action to a task. Config carries the raw
// type-specific payload; it is validated against the trigger type at
// creation and parsed again at execution.
type WorkflowTrigger struct {
	ID             string          `json:"id"`
	TaskID         string          `json:"task_id"`
	Type           TriggerType     `json:"trigger_type"`
	Config         json.RawMessage `json:"config"`
	Status         TriggerStatus   `json:"status"`
	RetryCount     int             `json:"retry_count"`
	MaxRetries     int             `json:"max_retries"`
	ExecutionCount int             `json:"execution_count,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RetryExhausted reports whether the trigger has consumed its retry budget.
func (t *WorkflowTrigger) RetryExhausted() bool {
	return t.RetryCount >= t.MaxRetries
}

// TriggerResult is the successful outcome of one trigger execution.
type TriggerResult struct {
	Data     json.RawMessage   `json:"data,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TriggerExecution records a single execution attempt of a trigger.
type TriggerExecution struct {
	ID         string          `json:"id"`
	TriggerID  string          `json:"trigger_id"`
	TaskID     string          `json:"task_id"`
	Type       TriggerType     `json:"trigger_type"`
	Attempt    int             `json:"attempt"`
	Status     TriggerStatus   `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
	DurationMs int64           `json:"duration_ms"`
	Error      string          `json:"error,omitempty"`
	ExecutedAt time.Time       `json:"executed_at"`
}
