package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/graph"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/redisstate"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/store"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/trigger"
	"github.com/Zeeeepa/codegen-examples-sub000/pkg/telemetry"
)

// REST handles HTTP requests for the API service. Graph queries are served
// from a fresh store snapshot on every call; trigger lifecycle operations go
// through the orchestrator.
type REST struct {
	store  store.Store
	state  redisstate.StateStore
	orch   *trigger.Orchestrator
	cache  *graph.AnalysisCache
	logger *slog.Logger
}

// NewREST creates a new REST handler.
func NewREST(st store.Store, state redisstate.StateStore, orch *trigger.Orchestrator, cache *graph.AnalysisCache, logger *slog.Logger) *REST {
	return &REST{store: st, state: state, orch: orch, cache: cache, logger: logger}
}

// Routes assembles the full route table.
func (h *REST) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks/ready", h.ReadyTasks)
		r.Get("/tasks/ordering", h.SuggestOrdering)
		r.Get("/tasks/{id}", h.GetTask)
		r.Patch("/tasks/{id}/status", h.UpdateTaskStatus)
		r.Post("/dependencies", h.CreateDependency)
		r.Post("/analysis", h.Analyze)
		r.Post("/triggers", h.CreateTrigger)
		r.Get("/triggers/{id}", h.GetTrigger)
		r.Post("/triggers/{id}/execute", h.ExecuteTrigger)
		r.Post("/triggers/{id}/retry", h.RetryTrigger)
		r.Post("/triggers/{id}/approve", h.ApproveTrigger)
		r.Post("/triggers/{id}/cancel", h.CancelTrigger)
	})
	return r
}

// CreateTaskRequest is the JSON body for POST /api/v1/tasks.
type CreateTaskRequest struct {
	ID             string   `json:"id,omitempty"`
	Project        string   `json:"project,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	Complexity     string   `json:"complexity,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	Assignee       string   `json:"assignee,omitempty"`
}

// CreateTask handles POST /api/v1/tasks.
func (h *REST) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "field 'title' is required")
		return
	}

	task := &domain.Task{
		ID:             req.ID,
		Project:        req.Project,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       domain.Priority(req.Priority),
		Complexity:     domain.Complexity(req.Complexity),
		EstimatedHours: req.EstimatedHours,
		Assignee:       req.Assignee,
	}
	if err := h.store.CreateTask(r.Context(), task); err != nil {
		h.logger.Error("failed to create task", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("project", task.Project),
	)
	writeJSON(w, http.StatusCreated, task)
}

// GetTask handles GET /api/v1/tasks/{id}. The response includes the triggers
// bound to the task.
func (h *REST) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.store.GetTask(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, "failed to retrieve task")
		return
	}
	triggers, err := h.store.ListTriggersByTask(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list triggers", slog.String("task_id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to retrieve task")
		return
	}
	if triggers == nil {
		triggers = []*domain.WorkflowTrigger{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task":     task,
		"triggers": triggers,
	})
}

// UpdateTaskStatusRequest is the JSON body for PATCH /api/v1/tasks/{id}/status.
type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

// UpdateTaskStatus handles PATCH /api/v1/tasks/{id}/status. Status
// transitions are caller-owned; only enum membership is checked.
func (h *REST) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateTaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := domain.Status(req.Status)
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown task status: "+req.Status)
		return
	}

	if err := h.store.UpdateTaskStatus(r.Context(), id, status); err != nil {
		h.writeDomainError(w, err, "failed to update task status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"task_id": id, "status": req.Status})
}

// CreateDependency handles POST /api/v1/dependencies. The body uses the edge
// wire format: dependency_task_id must complete before dependent_task_id.
func (h *REST) CreateDependency(w http.ResponseWriter, r *http.Request) {
	var edge domain.DependencyEdge
	if err := json.NewDecoder(r.Body).Decode(&edge); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if edge.DependencyID == "" || edge.DependentID == "" {
		writeError(w, http.StatusBadRequest, "fields 'dependency_task_id' and 'dependent_task_id' are required")
		return
	}

	if err := h.store.CreateDependency(r.Context(), &edge); err != nil {
		h.writeDomainError(w, err, "failed to create dependency")
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

// AnalysisRequest is the JSON body for POST /api/v1/analysis. An empty body
// analyzes all projects.
type AnalysisRequest struct {
	Project string `json:"project,omitempty"`
}

// Analyze handles POST /api/v1/analysis: builds a graph from the current
// store snapshot and returns the full analysis, memoized by snapshot hash.
func (h *REST) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.analysis")
	defer span.End()

	var req AnalysisRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	g, taskCount, err := h.snapshot(ctx, req.Project)
	if err != nil {
		h.logger.Error("failed to load snapshot", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load task snapshot")
		return
	}
	span.SetAttributes(
		attribute.String("project", req.Project),
		attribute.Int("task_count", taskCount),
	)

	analysis := h.cache.Analyze(g)
	writeJSON(w, http.StatusOK, analysis)
}

// ReadyTasks handles GET /api/v1/tasks/ready?project=. Readiness is always
// computed on a fresh snapshot, never from the analysis cache.
func (h *REST) ReadyTasks(w http.ResponseWriter, r *http.Request) {
	g, _, err := h.snapshot(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		h.logger.Error("failed to load snapshot", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load task snapshot")
		return
	}

	ready := g.ReadyTasks()
	if ready == nil {
		ready = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ready_tasks": ready})
}

// SuggestOrdering handles GET /api/v1/tasks/ordering?project=.
func (h *REST) SuggestOrdering(w http.ResponseWriter, r *http.Request) {
	g, _, err := h.snapshot(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		h.logger.Error("failed to load snapshot", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load task snapshot")
		return
	}

	ordering := g.SuggestOrdering()
	if ordering == nil {
		ordering = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ordering": ordering})
}

// CreateTriggerRequest is the JSON body for POST /api/v1/triggers.
type CreateTriggerRequest struct {
	TaskID     string          `json:"task_id"`
	Type       string          `json:"trigger_type"`
	Config     json.RawMessage `json:"config"`
	MaxRetries int             `json:"max_retries,omitempty"`
}

// CreateTrigger handles POST /api/v1/triggers. The config is validated
// against the trigger type's schema before anything is persisted.
func (h *REST) CreateTrigger(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.create_trigger")
	defer span.End()

	var req CreateTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.TaskID) == "" {
		writeError(w, http.StatusBadRequest, "field 'task_id' is required")
		return
	}
	if strings.TrimSpace(req.Type) == "" {
		writeError(w, http.StatusBadRequest, "field 'trigger_type' is required")
		return
	}

	trg := &domain.WorkflowTrigger{
		TaskID:     req.TaskID,
		Type:       domain.TriggerType(req.Type),
		Config:     req.Config,
		MaxRetries: req.MaxRetries,
	}
	if err := h.orch.CreateTrigger(ctx, trg); err != nil {
		h.writeDomainError(w, err, "failed to create trigger")
		return
	}

	span.SetAttributes(
		attribute.String("trigger.id", trg.ID),
		attribute.String("trigger.type", req.Type),
	)
	telemetry.APITriggersCreated.WithLabelValues(req.Type).Inc()
	writeJSON(w, http.StatusCreated, trg)
}

// GetTrigger handles GET /api/v1/triggers/{id}. Reads try the Redis mirror
// first and fall back to the store; the live status always comes from the
// mirror when present.
func (h *REST) GetTrigger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	trg, err := h.state.GetTriggerMeta(ctx, id)
	if err != nil {
		var notFound *domain.TriggerNotFoundError
		if !errors.As(err, &notFound) {
			h.logger.Warn("redis meta read failed", slog.String("trigger_id", id), slog.String("error", err.Error()))
		}
		trg, err = h.store.GetTrigger(ctx, id)
		if err != nil {
			h.writeDomainError(w, err, "failed to retrieve trigger")
			return
		}
	}

	if status, err := h.state.GetStatus(ctx, id); err == nil {
		trg.Status = status
	}
	writeJSON(w, http.StatusOK, trg)
}

// ExecuteTrigger handles POST /api/v1/triggers/{id}/execute. A strategy
// failure marks the trigger failed and surfaces as 502; the error detail is
// on the trigger record.
func (h *REST) ExecuteTrigger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.orch.ExecuteTrigger(r.Context(), id); err != nil {
		if code, ok := domainStatus(err); ok {
			writeError(w, code, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.respondWithTrigger(r.Context(), w, id)
}

// RetryTrigger handles POST /api/v1/triggers/{id}/retry.
func (h *REST) RetryTrigger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.orch.RetryTrigger(r.Context(), id); err != nil {
		if code, ok := domainStatus(err); ok {
			writeError(w, code, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.respondWithTrigger(r.Context(), w, id)
}

// ApproveTriggerRequest is the JSON body for POST /api/v1/triggers/{id}/approve.
type ApproveTriggerRequest struct {
	Approver string `json:"approver"`
}

// ApproveTrigger handles POST /api/v1/triggers/{id}/approve.
func (h *REST) ApproveTrigger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ApproveTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Approver) == "" {
		writeError(w, http.StatusBadRequest, "field 'approver' is required")
		return
	}

	if err := h.orch.ApproveTrigger(r.Context(), id, req.Approver); err != nil {
		h.writeDomainError(w, err, "failed to approve trigger")
		return
	}
	h.respondWithTrigger(r.Context(), w, id)
}

// CancelTrigger handles POST /api/v1/triggers/{id}/cancel.
func (h *REST) CancelTrigger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.orch.CancelTrigger(r.Context(), id); err != nil {
		h.writeDomainError(w, err, "failed to cancel trigger")
		return
	}
	h.respondWithTrigger(r.Context(), w, id)
}

// Healthz handles GET /healthz.
func (h *REST) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz. Checks Redis connectivity; a missing probe key
// still means the connection works.
func (h *REST) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.state.GetStatus(ctx, "__readyz__"); err != nil {
		var notFound *domain.TriggerNotFoundError
		if !errors.As(err, &notFound) {
			writeError(w, http.StatusServiceUnavailable, "redis not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// snapshot loads the current tasks and edges for a project and builds the
// graph. The empty project means all projects.
func (h *REST) snapshot(ctx context.Context, project string) (*graph.Graph, int, error) {
	tasks, err := h.store.ListTasks(ctx, project)
	if err != nil {
		return nil, 0, err
	}
	edges, err := h.store.ListDependencyEdges(ctx, project)
	if err != nil {
		return nil, 0, err
	}
	return graph.Build(tasks, edges), len(tasks), nil
}

// respondWithTrigger writes the trigger's current persisted state, so
// lifecycle POSTs always return the record they changed.
func (h *REST) respondWithTrigger(ctx context.Context, w http.ResponseWriter, id string) {
	trg, err := h.orch.GetTrigger(ctx, id)
	if err != nil {
		h.writeDomainError(w, err, "failed to retrieve trigger")
		return
	}
	writeJSON(w, http.StatusOK, trg)
}

// domainStatus maps typed domain errors to HTTP status codes. The second
// return is false for errors with no domain mapping.
func domainStatus(err error) (int, bool) {
	var (
		taskNotFound *domain.TaskNotFoundError
		trgNotFound  *domain.TriggerNotFoundError
		cfgErr       *domain.ConfigValidationError
		typeErr      *domain.InvalidTriggerTypeError
		badEdge      *domain.InvalidDependencyError
		transErr     *domain.InvalidTransitionError
		exhausted    *domain.RetryExhaustedError
		unauthorized *domain.UnauthorizedApproverError
	)
	switch {
	case errors.As(err, &taskNotFound), errors.As(err, &trgNotFound):
		return http.StatusNotFound, true
	case errors.As(err, &cfgErr), errors.As(err, &typeErr), errors.As(err, &badEdge):
		return http.StatusBadRequest, true
	case errors.As(err, &transErr), errors.As(err, &exhausted):
		return http.StatusConflict, true
	case errors.As(err, &unauthorized):
		return http.StatusForbidden, true
	}
	return 0, false
}

func (h *REST) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	if code, ok := domainStatus(err); ok {
		writeError(w, code, err.Error())
		return
	}
	h.logger.Error(fallback, slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, fallback)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
