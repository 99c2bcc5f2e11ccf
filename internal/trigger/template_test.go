package trigger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/trigger"
)

func TestRenderTemplate(t *testing.T) {
	est := 12.5
	task := &domain.Task{
		ID:             "t1",
		Project:        "payments",
		Title:          "add retries",
		Status:         domain.StatusInProgress,
		Priority:       domain.PriorityHigh,
		Complexity:     domain.ComplexityComplex,
		Assignee:       "alice",
		EstimatedHours: &est,
	}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{
			"single field",
			`{"task":"{{task.id}}"}`,
			`{"task":"t1"}`,
		},
		{
			"multiple fields with spaces",
			`{{ task.title }} ({{task.status}}, {{task.priority}})`,
			`add retries (in_progress, high)`,
		},
		{
			"estimate formatting",
			`hours={{task.estimated_hours}}`,
			`hours=12.5`,
		},
		{
			"unknown field left as written",
			`{{task.budget}} for {{task.assignee}}`,
			`{{task.budget}} for alice`,
		},
		{
			"no placeholders",
			`plain text`,
			`plain text`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trigger.RenderTemplate(tt.tmpl, task))
		})
	}
}

func TestRenderTemplate_NilEstimate(t *testing.T) {
	task := &domain.Task{ID: "t1"}
	assert.Equal(t, "hours=", trigger.RenderTemplate("hours={{task.estimated_hours}}", task))
}
