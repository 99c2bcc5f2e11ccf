// Package trigger orchestrates workflow triggers bound to tasks: strict
// typed-config validation at creation, per-type execution strategies,
// caller-driven retries within a bounded budget, out-of-band approvals, and
// the recurring-job registry for scheduled triggers.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/events"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/redisstate"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/store"
	"github.com/Zeeeepa/codegen-examples-sub000/pkg/telemetry"
)

const (
	defaultMaxRetries       = 3
	defaultBatchConcurrency = 4

	// resultTTL caps how long mirrored execution results live in the
	// state store.
	resultTTL = time.Hour
)

// Orchestrator drives the trigger lifecycle end to end: create with strict
// config validation, execute by strategy, retry within budget, approve,
// cancel. Every transition is persisted through the trigger store, mirrored
// into the live state store, and published as an outcome event.
type Orchestrator struct {
	tasks     store.TaskStore
	triggers  store.TriggerStore
	state     redisstate.StateStore
	publisher events.Publisher
	registry  *Registry
	sched     *Scheduler
	batchSize int
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option        { return func(o *Orchestrator) { o.logger = l } }
func WithPublisher(p events.Publisher) Option { return func(o *Orchestrator) { o.publisher = p } }
func WithBatchConcurrency(n int) Option       { return func(o *Orchestrator) { o.batchSize = n } }

// NewOrchestrator wires an Orchestrator and starts its scheduler. Executors
// for the non-scheduled trigger types are installed by the caller via
// Register; the scheduled executor is installed here because its firings
// dispatch back through the orchestrator.
func NewOrchestrator(tasks store.TaskStore, triggers store.TriggerStore, state redisstate.StateStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tasks:     tasks,
		triggers:  triggers,
		state:     state,
		publisher: events.NopPublisher{},
		registry:  NewRegistry(),
		batchSize: defaultBatchConcurrency,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.sched = NewScheduler(o.fireScheduled, o.logger)
	o.registry.Register(NewScheduledExecutor(o.sched))
	o.sched.Start()
	return o
}

// Register installs an executor for its trigger type.
func (o *Orchestrator) Register(e Executor) { o.registry.Register(e) }

// Scheduler exposes the recurring-job registry, mainly for lifecycle
// inspection.
func (o *Orchestrator) Scheduler() *Scheduler { return o.sched }

// CreateTrigger validates the config against the trigger type's schema and
// persists the trigger as pending. Invalid configs fail here, never at
// execution time.
func (o *Orchestrator) CreateTrigger(ctx context.Context, trg *domain.WorkflowTrigger) error {
	if !trg.Type.Valid() {
		return &domain.InvalidTriggerTypeError{Type: trg.Type}
	}
	if _, err := o.tasks.GetTask(ctx, trg.TaskID); err != nil {
		return fmt.Errorf("create trigger: %w", err)
	}
	switch trg.Type {
	case domain.TriggerScheduled:
		cfg, err := ParseScheduledConfig(trg.Config)
		if err != nil {
			return err
		}
		trg.ExecutionCount = cfg.ExecutionCount
	default:
		if err := ValidateConfig(trg.Type, trg.Config); err != nil {
			return err
		}
	}

	if trg.ID == "" {
		trg.ID = uuid.New().String()
	}
	if trg.MaxRetries <= 0 {
		trg.MaxRetries = defaultMaxRetries
	}
	trg.Status = domain.TriggerPending
	now := time.Now().UTC()
	trg.CreatedAt = now
	trg.UpdatedAt = now

	if err := o.triggers.CreateTrigger(ctx, trg); err != nil {
		return fmt.Errorf("persist trigger: %w", err)
	}

	_ = o.state.SetStatus(ctx, trg.ID, trg.Status)
	_ = o.state.SetTriggerMeta(ctx, trg)
	o.publish(ctx, events.EventTriggerCreated, trg, 0)

	o.logger.Info("trigger created",
		slog.String("trigger_id", trg.ID),
		slog.String("task_id", trg.TaskID),
		slog.String("trigger_type", string(trg.Type)),
	)
	return nil
}

// GetTrigger loads one trigger by id.
func (o *Orchestrator) GetTrigger(ctx context.Context, id string) (*domain.WorkflowTrigger, error) {
	return o.triggers.GetTrigger(ctx, id)
}

// ExecuteTrigger runs the trigger's strategy once and persists the outcome.
// A failure marks the trigger failed and consumes one retry; success lands
// it in the status its executor reports: completed, pending_approval for a
// gated manual trigger, or triggered for an armed schedule.
func (o *Orchestrator) ExecuteTrigger(ctx context.Context, id string) (*domain.TriggerResult, error) {
	trg, err := o.triggers.GetTrigger(ctx, id)
	if err != nil {
		return nil, err
	}
	if !executable(trg) {
		return nil, &domain.InvalidTransitionError{
			TriggerID: trg.ID, From: trg.Status, To: domain.TriggerTriggered,
		}
	}
	exec, err := o.registry.Get(trg.Type)
	if err != nil {
		return nil, err
	}
	task, err := o.tasks.GetTask(ctx, trg.TaskID)
	if err != nil {
		return nil, fmt.Errorf("execute trigger %s: %w", trg.ID, err)
	}

	ctx, span := otel.Tracer("trigger").Start(ctx, "orchestrator.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("trigger.id", trg.ID),
		attribute.String("trigger.type", string(trg.Type)),
		attribute.String("task.id", trg.TaskID),
	)

	log := o.logger.With(
		slog.String("trigger_id", trg.ID),
		slog.String("trigger_type", string(trg.Type)),
		slog.String("task_id", trg.TaskID),
	)

	trg.Status = domain.TriggerTriggered
	o.persist(ctx, trg)

	attempt := trg.RetryCount + 1
	start := time.Now()
	outcome, execErr := exec.Execute(ctx, task, trg)
	durationSec := time.Since(start).Seconds()
	durationMs := int64(durationSec * 1000)

	telemetry.TriggerExecutionDurationSeconds.WithLabelValues(string(trg.Type)).Observe(durationSec)

	if execErr != nil {
		trg.Status = domain.TriggerFailed
		trg.RetryCount++
		trg.Result = nil
		trg.ErrorMessage = execErr.Error()
		o.persist(ctx, trg)
		o.record(ctx, trg, attempt, durationMs)
		o.publish(ctx, events.EventTriggerFailed, trg, durationMs)
		telemetry.TriggerExecutionsTotal.WithLabelValues(string(trg.Type), "failed").Inc()

		span.RecordError(execErr)
		span.SetStatus(codes.Error, "execution failed")
		log.Error("trigger execution failed",
			slog.Int("retry_count", trg.RetryCount),
			slog.Int64("duration_ms", durationMs),
			slog.String("error", execErr.Error()),
		)
		return nil, execErr
	}

	trg.Status = outcome.Status
	trg.ErrorMessage = ""
	if outcome.Result != nil {
		if raw, err := json.Marshal(outcome.Result); err == nil {
			trg.Result = raw
		}
	}
	o.persist(ctx, trg)
	o.record(ctx, trg, attempt, durationMs)

	eventType := events.EventTriggerExecuted
	if outcome.Status == domain.TriggerPendingApproval {
		eventType = events.EventApprovalRequested
	}
	o.publish(ctx, eventType, trg, durationMs)
	telemetry.TriggerExecutionsTotal.WithLabelValues(string(trg.Type), string(outcome.Status)).Inc()

	log.Info("trigger executed",
		slog.String("status", string(trg.Status)),
		slog.Int64("duration_ms", durationMs),
	)
	return outcome.Result, nil
}

// BatchResult pairs a trigger id with its execution outcome.
type BatchResult struct {
	TriggerID string
	Result    *domain.TriggerResult
	Err       error
}

// ExecuteBatch executes a set of triggers concurrently, bounded by the
// configured concurrency. One trigger's failure never aborts the rest;
// results come back in input order.
func (o *Orchestrator) ExecuteBatch(ctx context.Context, ids []string) []BatchResult {
	results := make([]BatchResult, len(ids))
	sem := make(chan struct{}, o.batchSize)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer func() {
				<-sem
				wg.Done()
			}()
			res, err := o.ExecuteTrigger(ctx, id)
			results[i] = BatchResult{TriggerID: id, Result: res, Err: err}
		}(i, id)
	}
	wg.Wait()
	return results
}

// RetryTrigger re-arms a failed trigger and executes it again. Once the
// retry budget is spent it fails fast with RetryExhaustedError, without
// attempting execution.
func (o *Orchestrator) RetryTrigger(ctx context.Context, id string) (*domain.TriggerResult, error) {
	trg, err := o.triggers.GetTrigger(ctx, id)
	if err != nil {
		return nil, err
	}
	if trg.Status != domain.TriggerFailed {
		return nil, &domain.InvalidTransitionError{
			TriggerID: trg.ID, From: trg.Status, To: domain.TriggerPending,
		}
	}
	if trg.RetryExhausted() {
		return nil, &domain.RetryExhaustedError{TriggerID: trg.ID, MaxRetries: trg.MaxRetries}
	}

	trg.Status = domain.TriggerPending
	o.persist(ctx, trg)
	o.publish(ctx, events.EventTriggerRetried, trg, 0)
	telemetry.TriggerRetriesTotal.WithLabelValues(string(trg.Type)).Inc()

	o.logger.Info("trigger re-armed for retry",
		slog.String("trigger_id", trg.ID),
		slog.Int("retry_count", trg.RetryCount),
		slog.Int("max_retries", trg.MaxRetries),
	)
	return o.ExecuteTrigger(ctx, id)
}

// ApproveTrigger completes a trigger parked in pending_approval. When the
// manual config names approvers, the given approver must be one of them.
func (o *Orchestrator) ApproveTrigger(ctx context.Context, id, approver string) error {
	trg, err := o.triggers.GetTrigger(ctx, id)
	if err != nil {
		return err
	}
	if trg.Status != domain.TriggerPendingApproval {
		return &domain.InvalidTransitionError{
			TriggerID: trg.ID, From: trg.Status, To: domain.TriggerCompleted,
		}
	}
	cfg, err := ParseManualConfig(trg.Config)
	if err != nil {
		return err
	}
	if !cfg.Allows(approver) {
		return &domain.UnauthorizedApproverError{TriggerID: trg.ID, Approver: approver}
	}

	approval, _ := json.Marshal(map[string]string{
		"approved_by": approver,
		"approved_at": time.Now().UTC().Format(time.RFC3339),
	})
	trg.Status = domain.TriggerCompleted
	trg.Result = approval
	trg.ErrorMessage = ""
	o.persist(ctx, trg)
	o.record(ctx, trg, trg.RetryCount+1, 0)
	o.publish(ctx, events.EventTriggerApproved, trg, 0)

	o.logger.Info("trigger approved",
		slog.String("trigger_id", trg.ID),
		slog.String("approver", approver),
	)
	return nil
}

// CancelTrigger marks the trigger cancelled from any state. For scheduled
// triggers the recurring job handle is stopped and removed first; a missing
// handle is a no-op with a warning.
func (o *Orchestrator) CancelTrigger(ctx context.Context, id string) error {
	trg, err := o.triggers.GetTrigger(ctx, id)
	if err != nil {
		return err
	}
	if trg.Status == domain.TriggerCancelled {
		return nil
	}
	if trg.Type == domain.TriggerScheduled {
		if !o.sched.Deregister(trg.ID) {
			o.logger.Warn("no scheduled job registered for cancelled trigger",
				slog.String("trigger_id", trg.ID),
			)
		}
	}

	trg.Status = domain.TriggerCancelled
	o.persist(ctx, trg)
	o.publish(ctx, events.EventTriggerCancelled, trg, 0)

	o.logger.Info("trigger cancelled", slog.String("trigger_id", trg.ID))
	return nil
}

// Shutdown stops the scheduler and waits for in-flight firings, bounded by
// ctx.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	stopped := o.sched.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// executable enforces the lifecycle: only pending triggers run, except that
// an armed scheduled trigger may be re-executed idempotently.
func executable(trg *domain.WorkflowTrigger) bool {
	if trg.Status == domain.TriggerPending {
		return true
	}
	return trg.Type == domain.TriggerScheduled && trg.Status == domain.TriggerTriggered
}

// fireScheduled is the cron callback: one logical execution of a scheduled
// trigger. Firings never change the trigger's own status; they increment
// executionCount, persist it, and dispatch the nested action when one is
// configured.
func (o *Orchestrator) fireScheduled(triggerID string) {
	ctx := context.Background()
	log := o.logger.With(slog.String("trigger_id", triggerID))

	trg, err := o.triggers.GetTrigger(ctx, triggerID)
	if err != nil {
		log.Error("scheduled firing: load trigger", slog.String("error", err.Error()))
		telemetry.ScheduledFiringsTotal.WithLabelValues("error").Inc()
		return
	}
	if trg.Status == domain.TriggerCancelled {
		o.sched.Deregister(triggerID)
		return
	}
	cfg, err := ParseScheduledConfig(trg.Config)
	if err != nil {
		log.Error("scheduled firing: bad config", slog.String("error", err.Error()))
		telemetry.ScheduledFiringsTotal.WithLabelValues("error").Inc()
		return
	}
	if cfg.MaxExecutions > 0 && trg.ExecutionCount >= cfg.MaxExecutions {
		o.sched.Deregister(triggerID)
		telemetry.ScheduledFiringsTotal.WithLabelValues("exhausted").Inc()
		log.Info("schedule exhausted, job deregistered",
			slog.Int("execution_count", trg.ExecutionCount),
			slog.Int("max_executions", cfg.MaxExecutions),
		)
		return
	}

	trg.ExecutionCount++
	o.persist(ctx, trg)

	if cfg.Action == nil {
		telemetry.ScheduledFiringsTotal.WithLabelValues("fired").Inc()
		o.publish(ctx, events.EventScheduledFired, trg, 0)
		log.Info("scheduled trigger fired, no action configured",
			slog.Int("execution_count", trg.ExecutionCount),
		)
		return
	}

	task, err := o.tasks.GetTask(ctx, trg.TaskID)
	if err != nil {
		log.Error("scheduled firing: load task", slog.String("error", err.Error()))
		telemetry.ScheduledFiringsTotal.WithLabelValues("error").Inc()
		return
	}
	exec, err := o.registry.Get(cfg.Action.Type)
	if err != nil {
		log.Error("scheduled firing: no executor for action", slog.String("error", err.Error()))
		telemetry.ScheduledFiringsTotal.WithLabelValues("error").Inc()
		return
	}

	action := *trg
	action.Type = cfg.Action.Type
	action.Config = cfg.Action.Config

	start := time.Now()
	outcome, execErr := exec.Execute(ctx, task, &action)
	durationMs := time.Since(start).Milliseconds()

	execRow := &domain.TriggerExecution{
		TriggerID:  trg.ID,
		TaskID:     trg.TaskID,
		Type:       cfg.Action.Type,
		Attempt:    trg.ExecutionCount,
		DurationMs: durationMs,
		ExecutedAt: time.Now().UTC(),
	}
	if execErr != nil {
		execRow.Status = domain.TriggerFailed
		execRow.Error = execErr.Error()
		telemetry.ScheduledFiringsTotal.WithLabelValues("error").Inc()
		log.Error("scheduled action failed",
			slog.String("action_type", string(cfg.Action.Type)),
			slog.String("error", execErr.Error()),
		)
	} else {
		execRow.Status = outcome.Status
		if outcome.Result != nil {
			if raw, err := json.Marshal(outcome.Result); err == nil {
				execRow.Result = raw
				trg.Result = raw
				o.persist(ctx, trg)
			}
		}
		telemetry.ScheduledFiringsTotal.WithLabelValues("fired").Inc()
		log.Info("scheduled action completed",
			slog.String("action_type", string(cfg.Action.Type)),
			slog.Int("execution_count", trg.ExecutionCount),
			slog.Int64("duration_ms", durationMs),
		)
	}
	if err := o.triggers.RecordExecution(ctx, execRow); err != nil {
		log.Error("failed to record execution", slog.String("error", err.Error()))
	}
	o.publish(ctx, events.EventScheduledFired, trg, durationMs)
}

// persist writes the trigger through the store and mirrors its live state.
// Mirror writes are best-effort; the store is the source of truth.
func (o *Orchestrator) persist(ctx context.Context, trg *domain.WorkflowTrigger) {
	trg.UpdatedAt = time.Now().UTC()
	if err := o.triggers.UpdateTrigger(ctx, trg); err != nil {
		o.logger.Error("failed to update trigger",
			slog.String("trigger_id", trg.ID),
			slog.String("error", err.Error()),
		)
	}
	_ = o.state.SetStatus(ctx, trg.ID, trg.Status)
	_ = o.state.SetTriggerMeta(ctx, trg)
	if len(trg.Result) > 0 {
		_ = o.state.SetResult(ctx, trg.ID, trg.Result, resultTTL)
	}
}

func (o *Orchestrator) record(ctx context.Context, trg *domain.WorkflowTrigger, attempt int, durationMs int64) {
	exec := &domain.TriggerExecution{
		TriggerID:  trg.ID,
		TaskID:     trg.TaskID,
		Type:       trg.Type,
		Attempt:    attempt,
		Status:     trg.Status,
		Result:     trg.Result,
		DurationMs: durationMs,
		Error:      trg.ErrorMessage,
		ExecutedAt: time.Now().UTC(),
	}
	if err := o.triggers.RecordExecution(ctx, exec); err != nil {
		o.logger.Error("failed to record execution",
			slog.String("trigger_id", trg.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (o *Orchestrator) publish(ctx context.Context, eventType string, trg *domain.WorkflowTrigger, durationMs int64) {
	evt := &events.TriggerEvent{
		EventType:  eventType,
		TriggerID:  trg.ID,
		TaskID:     trg.TaskID,
		Type:       trg.Type,
		Status:     trg.Status,
		RetryCount: trg.RetryCount,
		DurationMs: durationMs,
		Error:      trg.ErrorMessage,
		OccurredAt: time.Now().UTC(),
	}
	if err := o.publisher.Publish(ctx, evt); err != nil {
		o.logger.Warn("event publish failed",
			slog.String("trigger_id", trg.ID),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
	}
}
