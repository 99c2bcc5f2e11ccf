package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

const (
	webhookTimeout      = 30 * time.Second
	maxWebhookResponse  = 64 << 10
	defaultAPIKeyHeader = "X-API-Key"
)

type webhookResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body,omitempty"`
}

// WebhookExecutor issues the outbound HTTP call a webhook trigger
// describes.
type WebhookExecutor struct {
	client *http.Client
}

// NewWebhookExecutor creates a WebhookExecutor.
func NewWebhookExecutor() *WebhookExecutor {
	return &WebhookExecutor{client: &http.Client{}}
}

func (e *WebhookExecutor) TriggerType() domain.TriggerType { return domain.TriggerWebhook }

func (e *WebhookExecutor) Execute(ctx context.Context, task *domain.Task, trg *domain.WorkflowTrigger) (*Outcome, error) {
	ctx, span := otel.Tracer("trigger").Start(ctx, "executor.webhook")
	defer span.End()

	cfg, err := ParseWebhookConfig(trg.Config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid config")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("webhook.endpoint", cfg.Endpoint),
		attribute.String("webhook.method", cfg.Method),
	)

	payload := defaultPayload(task, trg)
	if cfg.PayloadTemplate != "" {
		payload = RenderTemplate(cfg.PayloadTemplate, task)
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	var body io.Reader
	if cfg.Method != http.MethodGet && payload != "" {
		body = strings.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.Endpoint, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request failed")
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if cfg.Authentication != nil {
		cfg.Authentication.applyTo(req)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "http call failed")
		return nil, fmt.Errorf("webhook call to %s: %w", cfg.Endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponse))
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		err := fmt.Errorf("webhook %s returned status %d", cfg.Endpoint, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad status code")
		return nil, err
	}

	data, _ := json.Marshal(webhookResponse{Status: resp.StatusCode, Body: string(respBody)})
	return &Outcome{
		Status: domain.TriggerCompleted,
		Result: &domain.TriggerResult{
			Data:     data,
			Metadata: map[string]string{"status_code": strconv.Itoa(resp.StatusCode)},
		},
	}, nil
}

// applyTo sets the scheme's headers on the outgoing request.
func (a *AuthConfig) applyTo(req *http.Request) {
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	case AuthAPIKey:
		header := a.Header
		if header == "" {
			header = defaultAPIKeyHeader
		}
		req.Header.Set(header, a.Key)
	}
}
