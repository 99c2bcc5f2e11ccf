package trigger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

const (
	defaultBranch                = "main"
	defaultCodegenTimeoutMinutes = 30
	defaultTimezone              = "UTC"
)

// Validation run depths accepted by the validation agent.
const (
	ValidationSyntax = "syntax"
	ValidationLogic  = "logic"
	ValidationFull   = "full"
)

// Authentication schemes for outbound webhook calls.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthBasic  = "basic"
	AuthAPIKey = "api_key"
)

// CodegenConfig drives a code-generation agent run.
type CodegenConfig struct {
	AutoTrigger       bool     `json:"autoTrigger"`
	ReviewRequired    *bool    `json:"reviewRequired"`
	RepositoryURL     string   `json:"repositoryUrl,omitempty"`
	BranchName        string   `json:"branchName"`
	TargetFiles       []string `json:"targetFiles,omitempty"`
	AgentInstructions string   `json:"agentInstructions,omitempty"`
	TimeoutMinutes    float64  `json:"timeoutMinutes"`
}

// Timeout returns the execution deadline for the agent call.
func (c *CodegenConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes * float64(time.Minute))
}

// ValidationConfig drives a code-validation agent run.
type ValidationConfig struct {
	ValidationType       string `json:"validationType"`
	AutoFix              bool   `json:"autoFix"`
	TestCoverageRequired *bool  `json:"testCoverageRequired"`
	SecurityScan         *bool  `json:"securityScan"`
	PerformanceCheck     bool   `json:"performanceCheck"`
}

// AuthConfig selects the authentication scheme attached to a webhook call.
type AuthConfig struct {
	Type     string `json:"type"`
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Header   string `json:"header,omitempty"`
	Key      string `json:"key,omitempty"`
}

// WebhookConfig describes an outbound HTTP call.
type WebhookConfig struct {
	Endpoint        string            `json:"endpoint"`
	Method          string            `json:"method"`
	Headers         map[string]string `json:"headers,omitempty"`
	PayloadTemplate string            `json:"payloadTemplate,omitempty"`
	Authentication  *AuthConfig       `json:"authentication,omitempty"`
}

// ManualConfig describes a human-gated trigger.
type ManualConfig struct {
	ApprovalRequired *bool    `json:"approvalRequired"`
	Approvers        []string `json:"approvers,omitempty"`
	Instructions     string   `json:"instructions,omitempty"`
}

// Allows reports whether the approver may approve this trigger. An empty
// approver list allows anyone.
func (c *ManualConfig) Allows(approver string) bool {
	if len(c.Approvers) == 0 {
		return true
	}
	for _, a := range c.Approvers {
		if a == approver {
			return true
		}
	}
	return false
}

// ScheduledAction nests the workflow a schedule performs on each firing.
// Absent, each firing is a logged no-op that still counts an execution.
type ScheduledAction struct {
	Type   domain.TriggerType `json:"type"`
	Config json.RawMessage    `json:"config,omitempty"`
}

// ScheduledConfig describes a cron-driven recurring trigger.
type ScheduledConfig struct {
	CronExpression string           `json:"cronExpression"`
	Timezone       string           `json:"timezone"`
	MaxExecutions  int              `json:"maxExecutions,omitempty"`
	ExecutionCount int              `json:"executionCount,omitempty"`
	Action         *ScheduledAction `json:"action,omitempty"`
}

// CronSpec returns the expression with its timezone prefix in the form the
// cron parser understands.
func (c *ScheduledConfig) CronSpec() string {
	return fmt.Sprintf("CRON_TZ=%s %s", c.Timezone, c.CronExpression)
}

// ValidateConfig parses raw against the schema for the given trigger type.
// Called at creation time so malformed configs fail the create, never the
// later execution.
func ValidateConfig(t domain.TriggerType, raw json.RawMessage) error {
	var err error
	switch t {
	case domain.TriggerCodegen:
		_, err = ParseCodegenConfig(raw)
	case domain.TriggerValidation:
		_, err = ParseValidationConfig(raw)
	case domain.TriggerWebhook:
		_, err = ParseWebhookConfig(raw)
	case domain.TriggerManual:
		_, err = ParseManualConfig(raw)
	case domain.TriggerScheduled:
		_, err = ParseScheduledConfig(raw)
	default:
		return &domain.InvalidTriggerTypeError{Type: t}
	}
	return err
}

// ParseCodegenConfig decodes a codegen config and applies schema defaults.
func ParseCodegenConfig(raw json.RawMessage) (*CodegenConfig, error) {
	cfg := &CodegenConfig{}
	if err := decodeStrict(domain.TriggerCodegen, raw, cfg); err != nil {
		return nil, err
	}
	if cfg.ReviewRequired == nil {
		cfg.ReviewRequired = newBool(true)
	}
	if cfg.BranchName == "" {
		cfg.BranchName = defaultBranch
	}
	if cfg.TimeoutMinutes < 0 {
		return nil, &domain.ConfigValidationError{
			Type: domain.TriggerCodegen, Field: "timeoutMinutes", Reason: "must not be negative",
		}
	}
	if cfg.TimeoutMinutes == 0 {
		cfg.TimeoutMinutes = defaultCodegenTimeoutMinutes
	}
	return cfg, nil
}

// ParseValidationConfig decodes a validation config and applies schema
// defaults.
func ParseValidationConfig(raw json.RawMessage) (*ValidationConfig, error) {
	cfg := &ValidationConfig{}
	if err := decodeStrict(domain.TriggerValidation, raw, cfg); err != nil {
		return nil, err
	}
	if cfg.ValidationType == "" {
		cfg.ValidationType = ValidationFull
	}
	switch cfg.ValidationType {
	case ValidationSyntax, ValidationLogic, ValidationFull:
	default:
		return nil, &domain.ConfigValidationError{
			Type: domain.TriggerValidation, Field: "validationType",
			Reason: fmt.Sprintf("must be one of syntax, logic, full; got %q", cfg.ValidationType),
		}
	}
	if cfg.TestCoverageRequired == nil {
		cfg.TestCoverageRequired = newBool(true)
	}
	if cfg.SecurityScan == nil {
		cfg.SecurityScan = newBool(true)
	}
	return cfg, nil
}

// ParseWebhookConfig decodes a webhook config, applies schema defaults and
// checks the endpoint, method and authentication scheme.
func ParseWebhookConfig(raw json.RawMessage) (*WebhookConfig, error) {
	cfg := &WebhookConfig{}
	if err := decodeStrict(domain.TriggerWebhook, raw, cfg); err != nil {
		return nil, err
	}
	if cfg.Endpoint == "" {
		return nil, &domain.ConfigValidationError{
			Type: domain.TriggerWebhook, Field: "endpoint", Reason: "is required",
		}
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &domain.ConfigValidationError{
			Type: domain.TriggerWebhook, Field: "endpoint", Reason: "must be an http(s) url",
		}
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	cfg.Method = strings.ToUpper(cfg.Method)
	switch cfg.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil, &domain.ConfigValidationError{
			Type: domain.TriggerWebhook, Field: "method",
			Reason: fmt.Sprintf("must be one of GET, POST, PUT, PATCH; got %q", cfg.Method),
		}
	}
	if cfg.Authentication != nil {
		if err := validateAuth(cfg.Authentication); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func validateAuth(a *AuthConfig) error {
	if a.Type == "" {
		a.Type = AuthNone
	}
	switch a.Type {
	case AuthNone:
	case AuthBearer:
		if a.Token == "" {
			return &domain.ConfigValidationError{
				Type: domain.TriggerWebhook, Field: "authentication.token", Reason: "is required for bearer auth",
			}
		}
	case AuthBasic:
		if a.Username == "" {
			return &domain.ConfigValidationError{
				Type: domain.TriggerWebhook, Field: "authentication.username", Reason: "is required for basic auth",
			}
		}
	case AuthAPIKey:
		if a.Key == "" {
			return &domain.ConfigValidationError{
				Type: domain.TriggerWebhook, Field: "authentication.key", Reason: "is required for api_key auth",
			}
		}
	default:
		return &domain.ConfigValidationError{
			Type: domain.TriggerWebhook, Field: "authentication.type",
			Reason: fmt.Sprintf("unknown scheme %q", a.Type),
		}
	}
	return nil
}

// ParseManualConfig decodes a manual config and applies schema defaults.
func ParseManualConfig(raw json.RawMessage) (*ManualConfig, error) {
	cfg := &ManualConfig{}
	if err := decodeStrict(domain.TriggerManual, raw, cfg); err != nil {
		return nil, err
	}
	if cfg.ApprovalRequired == nil {
		cfg.ApprovalRequired = newBool(true)
	}
	return cfg, nil
}

// ParseScheduledConfig decodes a scheduled config, validates the cron
// expression together with its timezone, and recursively validates the
// nested action when one is set.
func ParseScheduledConfig(raw json.RawMessage) (*ScheduledConfig, error) {
	cfg := &ScheduledConfig{}
	if err := decodeStrict(domain.TriggerScheduled, raw, cfg); err != nil {
		return nil, err
	}
	if cfg.CronExpression == "" {
		return nil, &domain.ConfigValidationError{
			Type: domain.TriggerScheduled, Field: "cronExpression", Reason: "is required",
		}
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	if _, err := cron.ParseStandard(cfg.CronSpec()); err != nil {
		return nil, &domain.ConfigValidationError{
			Type: domain.TriggerScheduled, Field: "cronExpression", Reason: err.Error(),
		}
	}
	if cfg.MaxExecutions < 0 {
		return nil, &domain.ConfigValidationError{
			Type: domain.TriggerScheduled, Field: "maxExecutions", Reason: "must not be negative",
		}
	}
	if cfg.ExecutionCount < 0 {
		return nil, &domain.ConfigValidationError{
			Type: domain.TriggerScheduled, Field: "executionCount", Reason: "must not be negative",
		}
	}
	if cfg.Action != nil {
		if cfg.Action.Type == domain.TriggerScheduled {
			return nil, &domain.ConfigValidationError{
				Type: domain.TriggerScheduled, Field: "action", Reason: "cannot nest another schedule",
			}
		}
		if !cfg.Action.Type.Valid() {
			return nil, &domain.ConfigValidationError{
				Type: domain.TriggerScheduled, Field: "action",
				Reason: fmt.Sprintf("unknown action type %q", cfg.Action.Type),
			}
		}
		if err := ValidateConfig(cfg.Action.Type, cfg.Action.Config); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// decodeStrict rejects unknown fields so config typos surface at creation
// instead of silently changing behavior. An empty payload means
// defaults-only.
func decodeStrict(t domain.TriggerType, raw json.RawMessage, v any) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &domain.ConfigValidationError{Type: t, Reason: err.Error()}
	}
	return nil
}

func newBool(v bool) *bool { return &v }
