//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/store"
)

// newStore creates a Store connected to the test Postgres container and
// truncates the tables on cleanup.
func newStore(t *testing.T) *store.Postgres {
	t.Helper()
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, testPostgresDSN)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(ctx, "TRUNCATE trigger_executions, workflow_triggers, task_dependencies, tasks CASCADE") //nolint:errcheck
		pool.Close()
	})
	return store.NewPostgres(pool)
}

func seedTask(t *testing.T, st *store.Postgres, id, project string) {
	t.Helper()
	require.NoError(t, st.CreateTask(context.Background(), &domain.Task{
		ID: id, Project: project, Title: "task " + id,
	}))
}

func TestPostgres_CreateAndGetTask(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	est := 12.5
	task := &domain.Task{
		ID:             uuid.New().String(),
		Project:        "alpha",
		Title:          "ship the parser",
		Priority:       domain.PriorityHigh,
		Complexity:     domain.ComplexityComplex,
		EstimatedHours: &est,
		Assignee:       "dana",
	}
	require.NoError(t, st.CreateTask(ctx, task))

	got, err := st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "alpha", got.Project)
	assert.Equal(t, domain.StatusPending, got.Status, "status defaults to pending")
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	require.NotNil(t, got.EstimatedHours)
	assert.Equal(t, 12.5, *got.EstimatedHours)
}

func TestPostgres_GetTask_NotFound(t *testing.T) {
	st := newStore(t)

	_, err := st.GetTask(context.Background(), uuid.New().String())
	require.Error(t, err)

	var notFound *domain.TaskNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestPostgres_UpdateTaskStatus(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	seedTask(t, st, "t1", "")

	require.NoError(t, st.UpdateTaskStatus(ctx, "t1", domain.StatusCompleted))

	got, err := st.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	err = st.UpdateTaskStatus(ctx, "ghost", domain.StatusCompleted)
	var notFound *domain.TaskNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestPostgres_Dependencies(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	seedTask(t, st, "a", "alpha")
	seedTask(t, st, "b", "alpha")
	seedTask(t, st, "c", "beta")

	require.NoError(t, st.CreateDependency(ctx, &domain.DependencyEdge{
		DependencyID: "a", DependentID: "b", Type: domain.DependencyBlocks,
	}))
	require.NoError(t, st.CreateDependency(ctx, &domain.DependencyEdge{
		DependencyID: "a", DependentID: "c", Type: domain.DependencyRequires,
	}))

	all, err := st.ListDependencyEdges(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	// Project filter keys off the dependent task.
	alpha, err := st.ListDependencyEdges(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, alpha, 1)
	assert.Equal(t, "b", alpha[0].DependentID)

	// Re-creating an edge updates its type instead of failing.
	require.NoError(t, st.CreateDependency(ctx, &domain.DependencyEdge{
		DependencyID: "a", DependentID: "b", Type: domain.DependencySuggests,
	}))
	all, err = st.ListDependencyEdges(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.DependencySuggests, all[0].Type)
}

func TestPostgres_Dependencies_RejectsSelfLoop(t *testing.T) {
	st := newStore(t)
	seedTask(t, st, "a", "")

	err := st.CreateDependency(context.Background(), &domain.DependencyEdge{
		DependencyID: "a", DependentID: "a",
	})
	var invalid *domain.InvalidDependencyError
	require.ErrorAs(t, err, &invalid)
}

func TestPostgres_TriggerLifecycle(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	seedTask(t, st, "t1", "")

	trg := &domain.WorkflowTrigger{
		TaskID:     "t1",
		Type:       domain.TriggerWebhook,
		Config:     json.RawMessage(`{"endpoint":"https://hooks.example.com"}`),
		MaxRetries: 3,
	}
	require.NoError(t, st.CreateTrigger(ctx, trg))
	require.NotEmpty(t, trg.ID, "CreateTrigger should populate the ID field")

	got, err := st.GetTrigger(ctx, trg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TriggerPending, got.Status)
	assert.JSONEq(t, `{"endpoint":"https://hooks.example.com"}`, string(got.Config))

	got.Status = domain.TriggerCompleted
	got.Result = json.RawMessage(`{"metadata":{"status_code":"200"}}`)
	require.NoError(t, st.UpdateTrigger(ctx, got))

	final, err := st.GetTrigger(ctx, trg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TriggerCompleted, final.Status)
	assert.JSONEq(t, `{"metadata":{"status_code":"200"}}`, string(final.Result))
}

func TestPostgres_ListPendingTriggers(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	seedTask(t, st, "t1", "")

	var ids []string
	for i := 0; i < 3; i++ {
		trg := &domain.WorkflowTrigger{
			TaskID: "t1",
			Type:   domain.TriggerManual,
			Config: json.RawMessage(fmt.Sprintf(`{"instructions":"step %d"}`, i)),
		}
		require.NoError(t, st.CreateTrigger(ctx, trg))
		ids = append(ids, trg.ID)
	}

	// Complete one; it must drop out of the pending list.
	done, err := st.GetTrigger(ctx, ids[0])
	require.NoError(t, err)
	done.Status = domain.TriggerCompleted
	require.NoError(t, st.UpdateTrigger(ctx, done))

	pending, err := st.ListPendingTriggers(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	limited, err := st.ListPendingTriggers(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPostgres_ListTriggersByTask(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	seedTask(t, st, "t1", "")
	seedTask(t, st, "t2", "")

	for _, taskID := range []string{"t1", "t1", "t2"} {
		require.NoError(t, st.CreateTrigger(ctx, &domain.WorkflowTrigger{
			TaskID: taskID, Type: domain.TriggerManual, Config: json.RawMessage(`{}`),
		}))
	}

	triggers, err := st.ListTriggersByTask(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, triggers, 2)
}

func TestPostgres_RecordExecution(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	seedTask(t, st, "t1", "")

	trg := &domain.WorkflowTrigger{TaskID: "t1", Type: domain.TriggerManual, Config: json.RawMessage(`{}`)}
	require.NoError(t, st.CreateTrigger(ctx, trg))

	exec := &domain.TriggerExecution{
		TriggerID:  trg.ID,
		TaskID:     "t1",
		Type:       domain.TriggerManual,
		Attempt:    1,
		Status:     domain.TriggerCompleted,
		DurationMs: 42,
	}
	require.NoError(t, st.RecordExecution(ctx, exec))
	assert.NotEmpty(t, exec.ID, "RecordExecution should populate the ID field")
}
