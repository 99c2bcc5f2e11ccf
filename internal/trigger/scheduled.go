package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
	"github.com/Zeeeepa/codegen-examples-sub000/pkg/telemetry"
)

// FireFunc runs one logical firing of a scheduled trigger.
type FireFunc func(triggerID string)

// Scheduler owns the process-wide cron runner and the per-trigger job
// registry. Registration is check-then-act under mu, so concurrent
// registers of the same trigger id produce exactly one job handle.
type Scheduler struct {
	cron   *cron.Cron
	fire   FireFunc
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler creates a stopped Scheduler dispatching firings to fire.
func NewScheduler(fire FireFunc, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		fire:    fire,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Start begins dispatching cron firings.
func (s *Scheduler) Start() { s.cron.Start() }

// Register adds a recurring job for the trigger. Registering an already
// registered trigger id is a no-op.
func (s *Scheduler) Register(triggerID string, cfg *ScheduledConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[triggerID]; ok {
		return nil
	}
	entryID, err := s.cron.AddFunc(cfg.CronSpec(), func() { s.fire(triggerID) })
	if err != nil {
		return fmt.Errorf("register schedule for trigger %s: %w", triggerID, err)
	}
	s.entries[triggerID] = entryID
	telemetry.ScheduledJobsActive.Inc()

	s.logger.Info("scheduled job registered",
		slog.String("trigger_id", triggerID),
		slog.String("cron", cfg.CronExpression),
		slog.String("timezone", cfg.Timezone),
	)
	return nil
}

// Deregister stops and removes the trigger's job handle. Returns false when
// no job was registered.
func (s *Scheduler) Deregister(triggerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entryID, ok := s.entries[triggerID]
	if !ok {
		return false
	}
	s.cron.Remove(entryID)
	delete(s.entries, triggerID)
	telemetry.ScheduledJobsActive.Dec()
	return true
}

// Registered reports whether the trigger currently has a job handle.
func (s *Scheduler) Registered(triggerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[triggerID]
	return ok
}

// Stop halts the cron runner and clears the registry. The returned context
// is done once in-flight firings finish.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	for id := range s.entries {
		delete(s.entries, id)
		telemetry.ScheduledJobsActive.Dec()
	}
	s.mu.Unlock()
	return s.cron.Stop()
}

// ScheduledExecutor arms the recurring job for a scheduled trigger. The
// firings themselves run through the orchestrator's firing callback, which
// re-checks maxExecutions and dispatches the nested action.
type ScheduledExecutor struct {
	sched *Scheduler
}

// NewScheduledExecutor creates a ScheduledExecutor bound to sched.
func NewScheduledExecutor(sched *Scheduler) *ScheduledExecutor {
	return &ScheduledExecutor{sched: sched}
}

func (e *ScheduledExecutor) TriggerType() domain.TriggerType { return domain.TriggerScheduled }

func (e *ScheduledExecutor) Execute(_ context.Context, _ *domain.Task, trg *domain.WorkflowTrigger) (*Outcome, error) {
	cfg, err := ParseScheduledConfig(trg.Config)
	if err != nil {
		return nil, err
	}
	if err := e.sched.Register(trg.ID, cfg); err != nil {
		return nil, err
	}

	data, _ := json.Marshal(map[string]string{
		"cron":     cfg.CronExpression,
		"timezone": cfg.Timezone,
	})
	return &Outcome{
		Status: domain.TriggerTriggered,
		Result: &domain.TriggerResult{Data: data, Metadata: map[string]string{"registered": "true"}},
	}, nil
}
