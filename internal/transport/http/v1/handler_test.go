package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/modelgate/modelgate/internal/budget"
	"github.com/modelgate/modelgate/internal/confirm"
	"github.com/modelgate/modelgate/internal/domain"
	"github.com/modelgate/modelgate/internal/gateway"
	"github.com/modelgate/modelgate/internal/policy"
	"github.com/modelgate/modelgate/internal/provider"
	"github.com/modelgate/modelgate/internal/router"
	"github.com/modelgate/modelgate/internal/telemetry"
	v1 "github.com/modelgate/modelgate/internal/transport/http/v1"
	"github.com/modelgate/modelgate/tests/helpers"
)

func newTestServer(t *testing.T) (*echo.Echo, *telemetry.Window) {
	t.Helper()
	ctx := context.Background()

	s := helpers.NewTestSQLiteStore(t)

	engine, err := policy.NewEngine(ctx, policy.DefaultAuthzPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	policies, err := policy.NewRegistry(engine, policy.DefaultPolicies())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	providers := provider.NewRegistry()
	providers.Register(provider.NewMockAdapter("openai"))
	providers.Register(provider.NewMockAdapter("anthropic"))

	cfg := &domain.GlobalRoutingConfig{
		DefaultProvider: "openai",
		DefaultModel:    "gpt-4o-mini",
		FallbackChain:   []string{"openai", "anthropic"},
		Retry:           domain.RetryConfig{MaxRetries: 1, InitialDelayMs: 1, MaxDelayMs: 2, BackoffMultiplier: 2},
	}
	rt := router.New(providers, cfg, nil)

	ledger := budget.NewLedger(s)
	window := telemetry.NewWindow(0)
	recorder := telemetry.NewRecorder(s, nil, window)
	gw := gateway.New(policies, rt, ledger, recorder, providers, 0)
	gate := confirm.NewGate(s, 30*time.Minute)

	e := echo.New()
	v1.NewHandler(gw, gate, window).RegisterRoutes(e)
	return e, window
}

func doJSON(e *echo.Echo, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestRunTaskValidation(t *testing.T) {
	e, _ := newTestServer(t)

	cases := []map[string]interface{}{
		{},
		{"task": "CHAT_RESPOND"},
		{"task": "CHAT_RESPOND", "messages": []map[string]string{{"role": "user", "content": "hi"}}},
	}
	for i, body := range cases {
		rec := doJSON(e, http.MethodPost, "/v1/tasks/run", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "case %d", i)
	}
}

func TestRunTaskEndToEnd(t *testing.T) {
	e, window := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/v1/tasks/run", domain.GatewayRequest{
		Task:     domain.TaskChatRespond,
		Messages: []domain.Message{{Role: "user", Content: "hello"}},
		UserID:   "u1",
		OrgID:    "org1",
		Role:     domain.RoleMember,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.GatewayResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "openai", resp.Provider)
	assert.NotEmpty(t, resp.Content)
	assert.NotEmpty(t, resp.AuditID)

	// The rolling window saw the call.
	assert.Equal(t, 1, window.Snapshot().Calls)
}

func TestRunTaskDeniedRoleIsStill200(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/v1/tasks/run", domain.GatewayRequest{
		Task:     domain.TaskActionPlan,
		Messages: []domain.Message{{Role: "user", Content: "plan something"}},
		UserID:   "u1",
		OrgID:    "org1",
		Role:     domain.RoleViewer,
	})
	// Expected failures come back in the body, not as HTTP errors.
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.GatewayResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "role not allowed")
}

func TestConfirmationFlow(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/v1/confirmations", domain.ConfirmationRequest{
		UserID:     "u1",
		OrgID:      "org1",
		ActionType: "invoice.approve",
		Payload:    json.RawMessage(`{"invoice_id":"inv_42"}`),
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created domain.PendingConfirmation
	json.Unmarshal(rec.Body.Bytes(), &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.ConfirmationStatusPending, created.Status)

	// Wrong owner gets a 403 and no state change.
	rec = doJSON(e, http.MethodPost, "/v1/confirmations/"+created.ID+"/confirm", map[string]string{"user_id": "u2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The owner confirms and receives the gated payload.
	rec = doJSON(e, http.MethodPost, "/v1/confirmations/"+created.ID+"/confirm", map[string]string{"user_id": "u1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Status  domain.ConfirmationStatus `json:"status"`
		Payload json.RawMessage           `json:"payload"`
	}
	json.Unmarshal(rec.Body.Bytes(), &result)
	assert.Equal(t, domain.ConfirmationStatusConfirmed, result.Status)
	assert.JSONEq(t, `{"invoice_id":"inv_42"}`, string(result.Payload))

	// Declining after confirmation conflicts.
	rec = doJSON(e, http.MethodPost, "/v1/confirmations/"+created.ID+"/decline", map[string]string{"user_id": "u1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConfirmationNotFound(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/v1/confirmations/cnf_missing/confirm", map[string]string{"user_id": "u1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateConfirmationValidation(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/v1/confirmations", map[string]string{"user_id": "u1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRealtimeMetricsEndpoint(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/v1/metrics/realtime", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var stats telemetry.RealtimeStats
	json.Unmarshal(rec.Body.Bytes(), &stats)
	assert.Equal(t, 0, stats.Calls)
	assert.Equal(t, 3600, stats.WindowSeconds)
}
