package trigger_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
	"github.com/Zeeeepa/codegen-examples-sub000/internal/trigger"
)

func webhookTrigger(t *testing.T, config string) *domain.WorkflowTrigger {
	t.Helper()
	return &domain.WorkflowTrigger{
		ID:     "trg-1",
		TaskID: "t1",
		Type:   domain.TriggerWebhook,
		Config: json.RawMessage(config),
	}
}

func TestWebhookExecutor_TriggerType(t *testing.T) {
	e := trigger.NewWebhookExecutor()
	assert.Equal(t, domain.TriggerWebhook, e.TriggerType())
}

func TestWebhookExecutor_DefaultPayloadAndMethod(t *testing.T) {
	var (
		gotMethod string
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`ack`))
	}))
	defer srv.Close()

	task := &domain.Task{ID: "t1", Title: "ship it", Status: domain.StatusPending, Priority: domain.PriorityHigh}
	e := trigger.NewWebhookExecutor()
	outcome, err := e.Execute(context.Background(), task, webhookTrigger(t, `{"endpoint":"`+srv.URL+`"}`))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, domain.TriggerCompleted, outcome.Status)
	assert.Equal(t, "200", outcome.Result.Metadata["status_code"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "t1", payload["task_id"])
	assert.Equal(t, "ship it", payload["title"])
	assert.Equal(t, "trg-1", payload["trigger_id"])
}

func TestWebhookExecutor_RendersTemplate(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	task := &domain.Task{ID: "t1", Title: "ship it"}
	cfg := `{"endpoint":"` + srv.URL + `","payloadTemplate":"{\"text\":\"task {{task.id}}: {{task.title}}\"}"}`
	e := trigger.NewWebhookExecutor()
	_, err := e.Execute(context.Background(), task, webhookTrigger(t, cfg))
	require.NoError(t, err)

	assert.JSONEq(t, `{"text":"task t1: ship it"}`, string(gotBody))
}

func TestWebhookExecutor_GetSendsNoBody(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	e := trigger.NewWebhookExecutor()
	_, err := e.Execute(context.Background(), &domain.Task{ID: "t1"},
		webhookTrigger(t, `{"endpoint":"`+srv.URL+`","method":"GET"}`))
	require.NoError(t, err)
	assert.Empty(t, gotBody)
}

func TestWebhookExecutor_AuthSchemes(t *testing.T) {
	tests := []struct {
		name      string
		auth      string
		header    string
		wantValue string
	}{
		{
			"bearer",
			`{"type":"bearer","token":"tok123"}`,
			"Authorization",
			"Bearer tok123",
		},
		{
			"api_key default header",
			`{"type":"api_key","key":"k123"}`,
			"X-API-Key",
			"k123",
		},
		{
			"api_key custom header",
			`{"type":"api_key","key":"k123","header":"X-Hook-Key"}`,
			"X-Hook-Key",
			"k123",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get(tt.header)
			}))
			defer srv.Close()

			cfg := `{"endpoint":"` + srv.URL + `","authentication":` + tt.auth + `}`
			e := trigger.NewWebhookExecutor()
			_, err := e.Execute(context.Background(), &domain.Task{ID: "t1"}, webhookTrigger(t, cfg))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, got)
		})
	}
}

func TestWebhookExecutor_BasicAuth(t *testing.T) {
	var user, pass string
	var ok bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok = r.BasicAuth()
	}))
	defer srv.Close()

	cfg := `{"endpoint":"` + srv.URL + `","authentication":{"type":"basic","username":"svc","password":"hunter2"}}`
	e := trigger.NewWebhookExecutor()
	_, err := e.Execute(context.Background(), &domain.Task{ID: "t1"}, webhookTrigger(t, cfg))
	require.NoError(t, err)

	require.True(t, ok)
	assert.Equal(t, "svc", user)
	assert.Equal(t, "hunter2", pass)
}

func TestWebhookExecutor_CustomHeaders(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Source")
	}))
	defer srv.Close()

	cfg := `{"endpoint":"` + srv.URL + `","headers":{"X-Source":"taskgraph"}}`
	e := trigger.NewWebhookExecutor()
	_, err := e.Execute(context.Background(), &domain.Task{ID: "t1"}, webhookTrigger(t, cfg))
	require.NoError(t, err)
	assert.Equal(t, "taskgraph", got)
}

func TestWebhookExecutor_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := trigger.NewWebhookExecutor()
	_, err := e.Execute(context.Background(), &domain.Task{ID: "t1"},
		webhookTrigger(t, `{"endpoint":"`+srv.URL+`"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestWebhookExecutor_ReturnsResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"received":true}`))
	}))
	defer srv.Close()

	e := trigger.NewWebhookExecutor()
	outcome, err := e.Execute(context.Background(), &domain.Task{ID: "t1"},
		webhookTrigger(t, `{"endpoint":"`+srv.URL+`"}`))
	require.NoError(t, err)

	var data struct {
		Status int    `json:"status"`
		Body   string `json:"body"`
	}
	require.NoError(t, json.Unmarshal(outcome.Result.Data, &data))
	assert.Equal(t, http.StatusCreated, data.Status)
	assert.JSONEq(t, `{"received":true}`, data.Body)
}

func TestWebhookExecutor_InvalidConfigFailsBeforeCall(t *testing.T) {
	e := trigger.NewWebhookExecutor()
	_, err := e.Execute(context.Background(), &domain.Task{ID: "t1"}, webhookTrigger(t, `{}`))
	var cfgErr *domain.ConfigValidationError
	require.ErrorAs(t, err, &cfgErr)
}
