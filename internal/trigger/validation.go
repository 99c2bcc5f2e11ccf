package trigger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/agent"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

// validationTimeout caps a validation agent run.
const validationTimeout = 5 * time.Minute

// ValidationExecutor submits validation runs to the automation agent.
type ValidationExecutor struct {
	agent *agent.Client
}

// NewValidationExecutor creates a ValidationExecutor backed by the given
// client.
func NewValidationExecutor(client *agent.Client) *ValidationExecutor {
	return &ValidationExecutor{agent: client}
}

func (e *ValidationExecutor) TriggerType() domain.TriggerType { return domain.TriggerValidation }

func (e *ValidationExecutor) Execute(ctx context.Context, task *domain.Task, trg *domain.WorkflowTrigger) (*Outcome, error) {
	ctx, span := otel.Tracer("trigger").Start(ctx, "executor.validation")
	defer span.End()

	cfg, err := ParseValidationConfig(trg.Config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid config")
		return nil, err
	}

	span.SetAttributes(attribute.String("validation.type", cfg.ValidationType))

	ctx, cancel := context.WithTimeout(ctx, validationTimeout)
	defer cancel()

	report, err := e.agent.RunValidation(ctx, &agent.ValidationRequest{
		TaskID:               task.ID,
		Title:                task.Title,
		ValidationType:       cfg.ValidationType,
		AutoFix:              cfg.AutoFix,
		TestCoverageRequired: *cfg.TestCoverageRequired,
		SecurityScan:         *cfg.SecurityScan,
		PerformanceCheck:     cfg.PerformanceCheck,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "agent call failed")
		return nil, fmt.Errorf("validation run for task %s: %w", task.ID, err)
	}

	meta := map[string]string{
		"issues_found": strconv.Itoa(report.IssuesFound),
		"passed":       strconv.FormatBool(report.Passed),
	}
	if report.ReportID != "" {
		meta["report_id"] = report.ReportID
	}
	span.SetAttributes(attribute.Int("validation.issues", report.IssuesFound))

	return &Outcome{
		Status: domain.TriggerCompleted,
		Result: &domain.TriggerResult{Data: report.Raw, Metadata: meta},
	}, nil
}
