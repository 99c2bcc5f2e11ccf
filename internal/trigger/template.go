package trigger

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*task\.([a-zA-Z_]+)\s*\}\}`)

// RenderTemplate substitutes {{task.field}} placeholders with values from
// the task. Placeholders naming unknown fields are left as written.
func RenderTemplate(tmpl string, task *domain.Task) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		field := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := taskField(task, field); ok {
			return v
		}
		return m
	})
}

func taskField(task *domain.Task, name string) (string, bool) {
	switch name {
	case "id":
		return task.ID, true
	case "project":
		return task.Project, true
	case "title":
		return task.Title, true
	case "description":
		return task.Description, true
	case "status":
		return string(task.Status), true
	case "priority":
		return string(task.Priority), true
	case "complexity":
		return string(task.Complexity), true
	case "assignee":
		return task.Assignee, true
	case "estimated_hours":
		if task.EstimatedHours == nil {
			return "", true
		}
		return strconv.FormatFloat(*task.EstimatedHours, 'f', -1, 64), true
	}
	return "", false
}

// defaultPayload is the task summary sent when a webhook config carries no
// payloadTemplate.
func defaultPayload(task *domain.Task, trg *domain.WorkflowTrigger) string {
	summary := struct {
		TriggerID string          `json:"trigger_id"`
		TaskID    string          `json:"task_id"`
		Title     string          `json:"title"`
		Status    domain.Status   `json:"status"`
		Priority  domain.Priority `json:"priority"`
		Assignee  string          `json:"assignee,omitempty"`
	}{trg.ID, task.ID, task.Title, task.Status, task.Priority, task.Assignee}
	raw, _ := json.Marshal(summary)
	return string(raw)
}
