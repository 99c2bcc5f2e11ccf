// Package agent talks to the external automation service that runs
// code-generation and validation jobs on behalf of triggers.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CodegenRequest is the payload submitted to the codegen agent.
type CodegenRequest struct {
	TaskID         string   `json:"task_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	RepositoryURL  string   `json:"repository_url,omitempty"`
	Branch         string   `json:"branch"`
	TargetFiles    []string `json:"target_files,omitempty"`
	Instructions   string   `json:"instructions,omitempty"`
	ReviewRequired bool     `json:"review_required"`
}

// CodegenJob is the agent's reference for an accepted codegen job.
type CodegenJob struct {
	JobID  string `json:"job_id"`
	URL    string `json:"url,omitempty"`
	Status string `json:"status,omitempty"`

	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"-"`
}

// ValidationRequest is the payload submitted to the validation agent.
type ValidationRequest struct {
	TaskID               string `json:"task_id"`
	Title                string `json:"title"`
	ValidationType       string `json:"validation_type"`
	AutoFix              bool   `json:"auto_fix"`
	TestCoverageRequired bool   `json:"test_coverage_required"`
	SecurityScan         bool   `json:"security_scan"`
	PerformanceCheck     bool   `json:"performance_check"`
}

// ValidationReport summarizes one validation run.
type ValidationReport struct {
	ReportID    string `json:"report_id"`
	Passed      bool   `json:"passed"`
	IssuesFound int    `json:"issues_found"`
	Summary     string `json:"summary,omitempty"`

	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"-"`
}

// Client calls the automation service's job endpoints.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client for the automation service at baseURL.
// Deadlines come from the caller's context; per-trigger timeouts range
// from seconds to half an hour, so the http.Client sets none of its own.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// SubmitCodegenJob posts a codegen job and returns the job reference.
func (c *Client) SubmitCodegenJob(ctx context.Context, req *CodegenRequest) (*CodegenJob, error) {
	ctx, span := otel.Tracer("agent").Start(ctx, "agent.codegen")
	defer span.End()
	span.SetAttributes(attribute.String("task.id", req.TaskID))

	var job CodegenJob
	raw, err := c.post(ctx, "/v1/codegen/jobs", req, &job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "codegen submit failed")
		return nil, err
	}
	job.Raw = raw

	span.SetAttributes(attribute.String("agent.job_id", job.JobID))
	return &job, nil
}

// RunValidation posts a validation job and returns its report.
func (c *Client) RunValidation(ctx context.Context, req *ValidationRequest) (*ValidationReport, error) {
	ctx, span := otel.Tracer("agent").Start(ctx, "agent.validation")
	defer span.End()
	span.SetAttributes(
		attribute.String("task.id", req.TaskID),
		attribute.String("validation.type", req.ValidationType),
	)

	var report ValidationReport
	raw, err := c.post(ctx, "/v1/validation/jobs", req, &report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation run failed")
		return nil, err
	}
	report.Raw = raw

	span.SetAttributes(attribute.Int("validation.issues", report.IssuesFound))
	return &report, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) (json.RawMessage, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent call to %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read agent response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("agent %s returned status %d", path, resp.StatusCode)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decode agent response: %w", err)
		}
	}
	return raw, nil
}
