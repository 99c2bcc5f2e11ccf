package events

import (
	"time"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

// Event types emitted over the trigger lifecycle.
const (
	EventTriggerCreated    = "trigger.created"
	EventTriggerExecuted   = "trigger.executed"
	EventTriggerFailed     = "trigger.failed"
	EventApprovalRequested = "trigger.approval_requested"
	EventTriggerApproved   = "trigger.approved"
	EventTriggerRetried    = "trigger.retried"
	EventTriggerCancelled  = "trigger.cancelled"
	EventScheduledFired    = "trigger.scheduled_fired"
)

// TriggerEvent is the audit record published after every trigger lifecycle
// change. External audit consumers read these from the event stream; the
// engine itself never consumes them.
type TriggerEvent struct {
	EventType  string               `json:"event_type"`
	TriggerID  string               `json:"trigger_id"`
	TaskID     string               `json:"task_id"`
	Type       domain.TriggerType   `json:"trigger_type"`
	Status     domain.TriggerStatus `json:"status"`
	RetryCount int                  `json:"retry_count"`
	DurationMs int64                `json:"duration_ms,omitempty"`
	Error      string               `json:"error,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}
