package trigger

import (
	"context"
	"encoding/json"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

// ManualExecutor handles human-gated triggers. With approval required it
// parks the trigger for an out-of-band ApproveTrigger call; otherwise it
// completes immediately. No external I/O either way.
type ManualExecutor struct{}

// NewManualExecutor creates a ManualExecutor.
func NewManualExecutor() *ManualExecutor { return &ManualExecutor{} }

func (e *ManualExecutor) TriggerType() domain.TriggerType { return domain.TriggerManual }

func (e *ManualExecutor) Execute(_ context.Context, _ *domain.Task, trg *domain.WorkflowTrigger) (*Outcome, error) {
	cfg, err := ParseManualConfig(trg.Config)
	if err != nil {
		return nil, err
	}

	if *cfg.ApprovalRequired {
		meta := map[string]string{"awaiting_approval": "true"}
		if cfg.Instructions != "" {
			meta["instructions"] = cfg.Instructions
		}
		return &Outcome{
			Status: domain.TriggerPendingApproval,
			Result: &domain.TriggerResult{Metadata: meta},
		}, nil
	}

	data, _ := json.Marshal(map[string]bool{"auto_completed": true})
	return &Outcome{
		Status: domain.TriggerCompleted,
		Result: &domain.TriggerResult{Data: data},
	}, nil
}
