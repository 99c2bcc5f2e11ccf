package trigger

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/agent"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

// CodegenExecutor submits code-generation jobs to the automation agent.
type CodegenExecutor struct {
	agent *agent.Client
}

// NewCodegenExecutor creates a CodegenExecutor backed by the given client.
func NewCodegenExecutor(client *agent.Client) *CodegenExecutor {
	return &CodegenExecutor{agent: client}
}

func (e *CodegenExecutor) TriggerType() domain.TriggerType { return domain.TriggerCodegen }

func (e *CodegenExecutor) Execute(ctx context.Context, task *domain.Task, trg *domain.WorkflowTrigger) (*Outcome, error) {
	ctx, span := otel.Tracer("trigger").Start(ctx, "executor.codegen")
	defer span.End()

	cfg, err := ParseCodegenConfig(trg.Config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid config")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("codegen.branch", cfg.BranchName),
		attribute.Float64("codegen.timeout_minutes", cfg.TimeoutMinutes),
	)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	job, err := e.agent.SubmitCodegenJob(ctx, &agent.CodegenRequest{
		TaskID:         task.ID,
		Title:          task.Title,
		Description:    task.Description,
		RepositoryURL:  cfg.RepositoryURL,
		Branch:         cfg.BranchName,
		TargetFiles:    cfg.TargetFiles,
		Instructions:   cfg.AgentInstructions,
		ReviewRequired: *cfg.ReviewRequired,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "agent call failed")
		return nil, fmt.Errorf("codegen job for task %s: %w", task.ID, err)
	}

	meta := map[string]string{"job_id": job.JobID}
	if job.URL != "" {
		meta["job_url"] = job.URL
	}
	span.SetAttributes(attribute.String("codegen.job_id", job.JobID))

	return &Outcome{
		Status: domain.TriggerCompleted,
		Result: &domain.TriggerResult{Data: job.Raw, Metadata: meta},
	}, nil
}
