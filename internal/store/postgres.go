package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
	"github.com/Zeeeepa/codegen-examples-sub000/pkg/retry"
)

// Postgres implements Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps a pgxpool with the Store interface.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// NewPool creates a pgxpool and verifies connectivity, retrying the ping so
// a service starting alongside the database does not crash-loop.
func NewPool(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	err = retry.Do(ctx, retry.Config{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		OnRetry: func(attempt int, err error) {
			logger.Warn("postgres not ready",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		},
	}, func() error { return pool.Ping(ctx) })
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// ─── Tasks ───────────────────────────────────────────────────────────────────

func (s *Postgres) CreateTask(ctx context.Context, task *domain.Task) error {
	applyTaskDefaults(task)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks
			(id, project, title, description, status, priority, complexity,
			 estimated_hours, assignee, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		task.ID, task.Project, task.Title, task.Description,
		string(task.Status), string(task.Priority), string(task.Complexity),
		task.EstimatedHours, task.Assignee, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task %s: %w", task.ID, err)
	}
	return nil
}

func (s *Postgres) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, project, title, description, status, priority, complexity,
		       estimated_hours, assignee, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`, id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.TaskNotFoundError{TaskID: id}
		}
		return nil, err
	}
	return task, nil
}

func (s *Postgres) ListTasks(ctx context.Context, project string) ([]domain.Task, error) {
	query := `
		SELECT id, project, title, description, status, priority, complexity,
		       estimated_hours, assignee, created_at, updated_at
		FROM tasks`
	args := []any{}
	if project != "" {
		query += ` WHERE project = $1`
		args = append(args, project)
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (s *Postgres) UpdateTaskStatus(ctx context.Context, id string, status domain.Status) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE id = $3
	`, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update status for task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.TaskNotFoundError{TaskID: id}
	}
	return nil
}

func (s *Postgres) CreateDependency(ctx context.Context, edge *domain.DependencyEdge) error {
	if err := validateEdge(edge); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO task_dependencies (dependency_task_id, dependent_task_id, dependency_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (dependency_task_id, dependent_task_id)
		DO UPDATE SET dependency_type = EXCLUDED.dependency_type
	`, edge.DependencyID, edge.DependentID, string(edge.Type))
	if err != nil {
		return fmt.Errorf("create dependency %s -> %s: %w", edge.DependencyID, edge.DependentID, err)
	}
	return nil
}

func (s *Postgres) ListDependencyEdges(ctx context.Context, project string) ([]domain.DependencyEdge, error) {
	query := `
		SELECT d.dependency_task_id, d.dependent_task_id, d.dependency_type
		FROM task_dependencies d`
	args := []any{}
	if project != "" {
		query += `
		JOIN tasks t ON t.id = d.dependent_task_id
		WHERE t.project = $1`
		args = append(args, project)
	}
	query += ` ORDER BY d.dependency_task_id, d.dependent_task_id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dependency edges: %w", err)
	}
	defer rows.Close()

	var edges []domain.DependencyEdge
	for rows.Next() {
		var e domain.DependencyEdge
		var typ string
		if err := rows.Scan(&e.DependencyID, &e.DependentID, &typ); err != nil {
			return nil, fmt.Errorf("scan dependency edge: %w", err)
		}
		e.Type = domain.DependencyType(typ)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ─── Triggers ────────────────────────────────────────────────────────────────

func (s *Postgres) CreateTrigger(ctx context.Context, trigger *domain.WorkflowTrigger) error {
	applyTriggerDefaults(trigger)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO workflow_triggers
			(id, task_id, trigger_type, config, status, retry_count, max_retries,
			 execution_count, result, error_message, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		trigger.ID, trigger.TaskID, string(trigger.Type), []byte(trigger.Config),
		string(trigger.Status), trigger.RetryCount, trigger.MaxRetries,
		trigger.ExecutionCount, []byte(trigger.Result), trigger.ErrorMessage,
		trigger.CreatedAt, trigger.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create trigger %s: %w", trigger.ID, err)
	}
	return nil
}

func (s *Postgres) GetTrigger(ctx context.Context, id string) (*domain.WorkflowTrigger, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, task_id, trigger_type, config, status, retry_count, max_retries,
		       execution_count, result, error_message, created_at, updated_at
		FROM workflow_triggers
		WHERE id = $1
	`, id)

	trigger, err := scanTrigger(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.TriggerNotFoundError{TriggerID: id}
		}
		return nil, err
	}
	return trigger, nil
}

func (s *Postgres) UpdateTrigger(ctx context.Context, trigger *domain.WorkflowTrigger) error {
	trigger.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE workflow_triggers
		SET status = $1, retry_count = $2, execution_count = $3,
		    result = $4, error_message = $5, updated_at = $6
		WHERE id = $7
	`,
		string(trigger.Status), trigger.RetryCount, trigger.ExecutionCount,
		[]byte(trigger.Result), trigger.ErrorMessage, trigger.UpdatedAt, trigger.ID,
	)
	if err != nil {
		return fmt.Errorf("update trigger %s: %w", trigger.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.TriggerNotFoundError{TriggerID: trigger.ID}
	}
	return nil
}

func (s *Postgres) ListPendingTriggers(ctx context.Context, limit int) ([]*domain.WorkflowTrigger, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, task_id, trigger_type, config, status, retry_count, max_retries,
		       execution_count, result, error_message, created_at, updated_at
		FROM workflow_triggers
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
	`, string(domain.TriggerPending), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending triggers: %w", err)
	}
	defer rows.Close()

	return collectTriggers(rows)
}

func (s *Postgres) ListTriggersByTask(ctx context.Context, taskID string) ([]*domain.WorkflowTrigger, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, task_id, trigger_type, config, status, retry_count, max_retries,
		       execution_count, result, error_message, created_at, updated_at
		FROM workflow_triggers
		WHERE task_id = $1
		ORDER BY created_at
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list triggers for task %s: %w", taskID, err)
	}
	defer rows.Close()

	return collectTriggers(rows)
}

func (s *Postgres) RecordExecution(ctx context.Context, exec *domain.TriggerExecution) error {
	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	if exec.ExecutedAt.IsZero() {
		exec.ExecutedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trigger_executions
			(id, trigger_id, task_id, trigger_type, attempt, status, result, duration_ms, error, executed_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		exec.ID, exec.TriggerID, exec.TaskID, string(exec.Type), exec.Attempt,
		string(exec.Status), []byte(exec.Result), exec.DurationMs, exec.Error, exec.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("record execution for trigger %s: %w", exec.TriggerID, err)
	}
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// scanTask reads a task row from any pgx row type.
func scanTask(row interface {
	Scan(...any) error
}) (*domain.Task, error) {
	var task domain.Task
	var status, priority, complexity string
	err := row.Scan(
		&task.ID, &task.Project, &task.Title, &task.Description,
		&status, &priority, &complexity,
		&task.EstimatedHours, &task.Assignee, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.Status = domain.Status(status)
	task.Priority = domain.Priority(priority)
	task.Complexity = domain.Complexity(complexity)
	return &task, nil
}

// scanTrigger reads a trigger row from any pgx row type.
func scanTrigger(row interface {
	Scan(...any) error
}) (*domain.WorkflowTrigger, error) {
	var trg domain.WorkflowTrigger
	var typ, status string
	var config, result []byte
	err := row.Scan(
		&trg.ID, &trg.TaskID, &typ, &config, &status,
		&trg.RetryCount, &trg.MaxRetries, &trg.ExecutionCount,
		&result, &trg.ErrorMessage, &trg.CreatedAt, &trg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan trigger: %w", err)
	}
	trg.Type = domain.TriggerType(typ)
	trg.Status = domain.TriggerStatus(status)
	trg.Config = json.RawMessage(config)
	trg.Result = json.RawMessage(result)
	return &trg, nil
}

func collectTriggers(rows pgx.Rows) ([]*domain.WorkflowTrigger, error) {
	var triggers []*domain.WorkflowTrigger
	for rows.Next() {
		trg, err := scanTrigger(rows)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, trg)
	}
	return triggers, rows.Err()
}

func applyTaskDefaults(task *domain.Task) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if task.Complexity == "" {
		task.Complexity = domain.ComplexityModerate
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
}

func applyTriggerDefaults(trigger *domain.WorkflowTrigger) {
	if trigger.ID == "" {
		trigger.ID = uuid.New().String()
	}
	if trigger.Status == "" {
		trigger.Status = domain.TriggerPending
	}
	if len(trigger.Config) == 0 {
		trigger.Config = json.RawMessage("{}")
	}
	now := time.Now().UTC()
	if trigger.CreatedAt.IsZero() {
		trigger.CreatedAt = now
	}
	trigger.UpdatedAt = now
}

func validateEdge(edge *domain.DependencyEdge) error {
	if edge.DependencyID == "" || edge.DependentID == "" {
		return &domain.InvalidDependencyError{
			DependencyID: edge.DependencyID,
			DependentID:  edge.DependentID,
			Reason:       "both task ids are required",
		}
	}
	if edge.DependencyID == edge.DependentID {
		return &domain.InvalidDependencyError{
			DependencyID: edge.DependencyID,
			DependentID:  edge.DependentID,
			Reason:       "self-loop",
		}
	}
	if edge.Type == "" {
		edge.Type = domain.DependencyBlocks
	}
	return nil
}
