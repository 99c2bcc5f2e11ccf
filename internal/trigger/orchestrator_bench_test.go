package trigger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/store"
)

var benchLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newBenchOrchestrator wires an orchestrator on in-memory stores with the
// manual executor, the cheapest no-I/O strategy.
func newBenchOrchestrator(b *testing.B) (*Orchestrator, *store.Memory, string) {
	b.Helper()
	mem := store.NewMemory()
	o := NewOrchestrator(mem, mem, newFakeState(), WithLogger(benchLogger))
	o.Register(NewManualExecutor())
	b.Cleanup(func() { _ = o.Shutdown(context.Background()) })

	ctx := context.Background()
	if err := mem.CreateTask(ctx, &domain.Task{ID: "bench-task", Title: "bench"}); err != nil {
		b.Fatal(err)
	}
	trg := &domain.WorkflowTrigger{
		TaskID: "bench-task",
		Type:   domain.TriggerManual,
		Config: json.RawMessage(`{}`),
	}
	if err := o.CreateTrigger(ctx, trg); err != nil {
		b.Fatal(err)
	}
	return o, mem, trg.ID
}

// rearm resets the trigger to pending so the lifecycle guard doesn't
// short-circuit repeated executions.
func rearm(b *testing.B, ctx context.Context, mem *store.Memory, id string) {
	trg, err := mem.GetTrigger(ctx, id)
	if err != nil {
		b.Fatal(err)
	}
	trg.Status = domain.TriggerPending
	if err := mem.UpdateTrigger(ctx, trg); err != nil {
		b.Fatal(err)
	}
}

// BenchmarkOrchestrator_ExecuteTrigger measures one full dispatch through
// the registry with a no-op strategy, i.e. the orchestration overhead
// excluding real I/O.
func BenchmarkOrchestrator_ExecuteTrigger(b *testing.B) {
	o, mem, id := newBenchOrchestrator(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rearm(b, ctx, mem, id)
		if _, err := o.ExecuteTrigger(ctx, id); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkOrchestrator_ExecuteTrigger_Parallel measures throughput under
// concurrent load, one orchestrator per goroutine.
func BenchmarkOrchestrator_ExecuteTrigger_Parallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		mem := store.NewMemory()
		o := NewOrchestrator(mem, mem, newFakeState(), WithLogger(benchLogger))
		o.Register(NewManualExecutor())
		defer o.Shutdown(context.Background()) //nolint:errcheck

		ctx := context.Background()
		if err := mem.CreateTask(ctx, &domain.Task{ID: "bench-task", Title: "bench"}); err != nil {
			b.Fatal(err)
		}
		trg := &domain.WorkflowTrigger{
			TaskID: "bench-task",
			Type:   domain.TriggerManual,
			Config: json.RawMessage(`{}`),
		}
		if err := o.CreateTrigger(ctx, trg); err != nil {
			b.Fatal(err)
		}

		for pb.Next() {
			rearm(b, ctx, mem, trg.ID)
			if _, err := o.ExecuteTrigger(ctx, trg.ID); err != nil {
				b.Fatal(err)
			}
		}
	})
}
