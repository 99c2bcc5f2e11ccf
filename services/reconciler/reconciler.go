// Package reconciler periodically sweeps pending workflow triggers and
// dispatches the ones whose tasks are ready. It is the automatic counterpart
// to the API's explicit execute endpoint: manual and scheduled triggers are
// never swept, and codegen triggers opt in through autoTrigger.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/graph"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/redisstate"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/store"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/trigger"
	"github.com/Zeeeepa/codegen-examples-sub000/pkg/telemetry"
)

const (
	defaultInterval   = 15 * time.Second
	defaultBatchLimit = 50
)

// Elector reports whether this instance may run the sweep.
type Elector interface {
	AcquireOrRenew(ctx context.Context) bool
}

// Reconciler drives the sweep loop. The trigger store is the work queue and
// the graph engine's ready set is the gate: a pending trigger dispatches only
// once every dependency of its task has completed.
type Reconciler struct {
	store    store.Store
	orch     *trigger.Orchestrator
	limiter  redisstate.RateLimiter // nil = disabled
	elector  Elector                // nil = single instance
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func New(
	st store.Store,
	orch *trigger.Orchestrator,
	limiter redisstate.RateLimiter,
	elector Elector,
	interval time.Duration,
	batchLimit int,
	logger *slog.Logger,
) *Reconciler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if batchLimit <= 0 {
		batchLimit = defaultBatchLimit
	}
	return &Reconciler{
		store:    st,
		orch:     orch,
		limiter:  limiter,
		elector:  elector,
		interval: interval,
		batch:    batchLimit,
		logger:   logger,
	}
}

// Run is the main sweep loop. Blocks until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Run once immediately before waiting for the first tick.
	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reconciler) tick(ctx context.Context) {
	if r.elector != nil && !r.elector.AcquireOrRenew(ctx) {
		return
	}
	if err := r.sweep(ctx); err != nil {
		r.logger.Error("sweep failed", slog.String("error", err.Error()))
	}
}

// sweep lists pending triggers up to the batch limit, filters them through
// the dispatch rules and hands the survivors to the orchestrator in one
// bounded-concurrency batch.
func (r *Reconciler) sweep(ctx context.Context) error {
	ctx, span := otel.Tracer("reconciler").Start(ctx, "reconciler.sweep")
	defer span.End()
	telemetry.ReconcilerSweepsTotal.Inc()

	pending, err := r.store.ListPendingTriggers(ctx, r.batch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list pending triggers")
		return fmt.Errorf("list pending triggers: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	// Ready sets are computed once per project per sweep; triggers for the
	// same project share the snapshot.
	readySets := make(map[string]map[string]struct{})

	var dispatch []string
	for _, trg := range pending {
		ok, err := r.shouldDispatch(ctx, trg, readySets)
		if err != nil {
			r.logger.Warn("skipping trigger",
				slog.String("trigger_id", trg.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			dispatch = append(dispatch, trg.ID)
		}
	}
	span.SetAttributes(
		attribute.Int("pending", len(pending)),
		attribute.Int("dispatched", len(dispatch)),
	)
	if len(dispatch) == 0 {
		return nil
	}

	results := r.orch.ExecuteBatch(ctx, dispatch)
	telemetry.ReconcilerDispatchedTotal.Add(float64(len(dispatch)))
	for _, res := range results {
		if res.Err != nil {
			r.logger.Warn("dispatched trigger failed",
				slog.String("trigger_id", res.TriggerID),
				slog.String("error", res.Err.Error()),
			)
		}
	}

	r.logger.Info("sweep complete",
		slog.Int("pending", len(pending)),
		slog.Int("dispatched", len(dispatch)),
	)
	return nil
}

// shouldDispatch applies the sweep filters to one pending trigger. Manual
// triggers wait for a human, scheduled triggers belong to the cron runner,
// and codegen triggers dispatch only when their config sets autoTrigger.
func (r *Reconciler) shouldDispatch(ctx context.Context, trg *domain.WorkflowTrigger, readySets map[string]map[string]struct{}) (bool, error) {
	switch trg.Type {
	case domain.TriggerManual, domain.TriggerScheduled:
		return false, nil
	case domain.TriggerCodegen:
		cfg, err := trigger.ParseCodegenConfig(trg.Config)
		if err != nil {
			return false, fmt.Errorf("codegen config: %w", err)
		}
		if !cfg.AutoTrigger {
			return false, nil
		}
	}

	if trg.RetryExhausted() {
		telemetry.ReconcilerSkippedTotal.WithLabelValues("exhausted").Inc()
		return false, nil
	}

	task, err := r.store.GetTask(ctx, trg.TaskID)
	if err != nil {
		return false, fmt.Errorf("load task %s: %w", trg.TaskID, err)
	}
	ready, err := r.readySet(ctx, task.Project, readySets)
	if err != nil {
		return false, err
	}
	if _, ok := ready[task.ID]; !ok {
		telemetry.ReconcilerSkippedTotal.WithLabelValues("not_ready").Inc()
		return false, nil
	}

	if r.limiter != nil {
		allowed, err := r.limiter.Allow(ctx, string(trg.Type))
		if err != nil {
			r.logger.Error("rate limiter error", slog.String("error", err.Error()))
			// Allow on limiter failure to avoid stalling dispatch on Redis issues.
		} else if !allowed {
			telemetry.ReconcilerSkippedTotal.WithLabelValues("rate_limited").Inc()
			return false, nil
		}
	}
	return true, nil
}

// readySet returns the project's ready task IDs as a set, building the graph
// snapshot on first use within a sweep.
func (r *Reconciler) readySet(ctx context.Context, project string, cache map[string]map[string]struct{}) (map[string]struct{}, error) {
	if set, ok := cache[project]; ok {
		return set, nil
	}

	tasks, err := r.store.ListTasks(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("list tasks for %q: %w", project, err)
	}
	edges, err := r.store.ListDependencyEdges(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("list edges for %q: %w", project, err)
	}

	set := make(map[string]struct{})
	for _, id := range graph.Build(tasks, edges).ReadyTasks() {
		set[id] = struct{}{}
	}
	cache[project] = set
	return set, nil
}
