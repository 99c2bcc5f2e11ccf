package domain

import "time"

// Status represents the states a task can be in. Task status transitions are
// owned by the caller; the graph engine only reads them.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusReview     Status = "review"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

// IsTerminal returns true if no further state transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// Valid reports whether s is one of the recognized task statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusBlocked, StatusReview,
		StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// Priority represents task urgency, used for ordering suggestions.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Weight returns the ordering weight for a priority (critical=4 … low=1).
// Unknown values weigh the same as medium.
func (p Priority) Weight() float64 {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// Complexity represents estimated implementation effort.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityEpic     Complexity = "epic"
)

// Weight returns the ordering weight for a complexity. Simpler tasks weigh
// more so they sort earlier (simple=4 … epic=1).
func (c Complexity) Weight() float64 {
	switch c {
	case ComplexitySimple:
		return 4
	case ComplexityComplex:
		return 2
	case ComplexityEpic:
		return 1
	default:
		return 3
	}
}

// DefaultHours returns the duration estimate, in hours, assumed for a task of
// this complexity when it carries no explicit estimate.
func (c Complexity) DefaultHours() float64 {
	switch c {
	case ComplexitySimple:
		return 2
	case ComplexityComplex:
		return 24
	case ComplexityEpic:
		return 80
	default:
		return 8
	}
}

// Task is the unit of work the graph engine analyzes. Tasks live in the
// external store and are handed to the engine as a point-in-time snapshot.
type Task struct {
	ID             string     `json:"id"`
	Project        string     `json:"project,omitempty"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description,omitempty"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	Complexity     Complexity `json:"complexity"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	Assignee       string     `json:"assignee,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DurationHours returns the explicit estimate when one is set, otherwise the
// complexity-indexed default.
func (t *Task) DurationHours() float64 {
	if t.EstimatedHours != nil && *t.EstimatedHours >= 0 {
		return *t.EstimatedHours
	}
	return t.Complexity.DefaultHours()
}
