package adminapi_test

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
	"github.com/modelgate/modelgate/internal/provider"
	"github.com/modelgate/modelgate/internal/router"
	"github.com/modelgate/modelgate/internal/store"
	"github.com/modelgate/modelgate/internal/transport/http/adminapi"
	"github.com/modelgate/modelgate/tests/helpers"
)

func newAdminServer(t *testing.T) (*echo.Echo, *store.SQLiteStore, *router.Router) {
	t.Helper()

	s := helpers.NewTestSQLiteStore(t)

	providers := provider.NewRegistry()
	providers.Register(provider.NewMockAdapter("openai"))
	providers.Register(provider.NewMockAdapter("anthropic"))

	cfg := &domain.GlobalRoutingConfig{
		DefaultProvider: "openai",
		DefaultModel:    "gpt-4o-mini",
		FallbackChain:   []string{"openai", "anthropic"},
		Retry:           domain.RetryConfig{MaxRetries: 3, InitialDelayMs: 1000, MaxDelayMs: 10000, BackoffMultiplier: 2},
	}
	rt := router.New(providers, cfg, s)

	ledger := budget.NewLedger(s)
	gate := confirm.NewGate(s, 30*time.Minute)

	e := echo.New()
	adminapi.NewHandler(rt, ledger, s, gate).RegisterRoutes(e)
	return e, s, rt
}

func doAdmin(e *echo.Echo, method, path string, body interface{}, verified bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if verified {
		req.Header.Set(adminapi.SuperuserCheckHeader, "verified")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSuperuserCheckRequired(t *testing.T) {
	e, _, _ := newAdminServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/admin/routing-config"},
		{http.MethodPut, "/admin/routing-config"},
		{http.MethodGet, "/admin/budgets/org1"},
		{http.MethodPut, "/admin/budgets/org1"},
		{http.MethodGet, "/admin/audit?org_id=org1"},
		{http.MethodGet, "/admin/usage?org_id=org1"},
		{http.MethodPost, "/admin/confirmations/sweep"},
	}
	for _, p := range paths {
		rec := doAdmin(e, p.method, p.path, nil, false)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestGetAndSetRoutingConfig(t *testing.T) {
	e, s, _ := newAdminServer(t)

	rec := doAdmin(e, http.MethodGet, "/admin/routing-config", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got domain.GlobalRoutingConfig
	json.Unmarshal(rec.Body.Bytes(), &got)
	assert.Equal(t, "openai", got.DefaultProvider)

	got.DefaultProvider = "anthropic"
	got.DefaultModel = "claude-sonnet"
	rec = doAdmin(e, http.MethodPut, "/admin/routing-config", got, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doAdmin(e, http.MethodGet, "/admin/routing-config", nil, true)
	var updated domain.GlobalRoutingConfig
	json.Unmarshal(rec.Body.Bytes(), &updated)
	assert.Equal(t, "anthropic", updated.DefaultProvider)

	// The replacement was persisted, not just swapped in memory.
	persisted, err := s.LoadRoutingConfig(context.Background())
	assert.NoError(t, err)
	if persisted == nil {
		t.Fatal("expected persisted routing config")
	}
	assert.Equal(t, "anthropic", persisted.DefaultProvider)
}

func TestSetRoutingConfigRejected(t *testing.T) {
	e, _, rt := newAdminServer(t)

	rec := doAdmin(e, http.MethodPut, "/admin/routing-config", domain.GlobalRoutingConfig{}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The old snapshot stays active after a rejected update.
	assert.Equal(t, "openai", rt.GetConfig().DefaultProvider)
}

func TestBudgetEndpoints(t *testing.T) {
	e, _, _ := newAdminServer(t)

	// No record yet: unlimited.
	rec := doAdmin(e, http.MethodGet, "/admin/budgets/org1", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	var status domain.OrgBudgetStatus
	json.Unmarshal(rec.Body.Bytes(), &status)
	assert.True(t, status.Unlimited)

	rec = doAdmin(e, http.MethodPut, "/admin/budgets/org1", map[string]interface{}{
		"allocated_tokens":   50000,
		"soft_limit_percent": 75,
		"overage_allowed":    false,
	}, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	json.Unmarshal(rec.Body.Bytes(), &status)
	assert.False(t, status.Unlimited)
	assert.Equal(t, int64(50000), status.AllocatedTokens)
	assert.Equal(t, float64(75), status.SoftLimitPercent)
}

func TestSetBudgetRejected(t *testing.T) {
	e, _, _ := newAdminServer(t)

	rec := doAdmin(e, http.MethodPut, "/admin/budgets/org1", map[string]interface{}{
		"allocated_tokens": -1,
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditAndUsageListing(t *testing.T) {
	e, s, _ := newAdminServer(t)
	now := time.Now().UTC()

	err := s.AppendAuditEntry(context.Background(), &domain.AuditEntry{
		AuditID: "aud_1", CorrelationID: "req_1", Task: domain.TaskChatRespond,
		UserID: "u1", OrgID: "org1", Success: true, PromptFingerprint: "abc", CreatedAt: now,
	})
	assert.NoError(t, err)
	err = s.AppendUsageRecord(context.Background(), &domain.UsageRecord{
		RecordID: "use_1", CorrelationID: "req_1", OrgID: "org1", UserID: "u1",
		Task: domain.TaskChatRespond, TotalTokens: 10, CreatedAt: now,
	})
	assert.NoError(t, err)

	rec := doAdmin(e, http.MethodGet, "/admin/audit?org_id=org1", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	var auditResp struct {
		Entries []domain.AuditEntry `json:"entries"`
	}
	json.Unmarshal(rec.Body.Bytes(), &auditResp)
	assert.Len(t, auditResp.Entries, 1)

	rec = doAdmin(e, http.MethodGet, "/admin/usage?org_id=org1", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	var usageResp struct {
		Records []domain.UsageRecord `json:"records"`
	}
	json.Unmarshal(rec.Body.Bytes(), &usageResp)
	assert.Len(t, usageResp.Records, 1)

	// org_id is required.
	rec = doAdmin(e, http.MethodGet, "/admin/audit", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSweepEndpoint(t *testing.T) {
	e, s, _ := newAdminServer(t)
	now := time.Now().UTC()

	err := s.CreateConfirmation(context.Background(), &domain.PendingConfirmation{
		ID: "cnf_stale", UserID: "u1", OrgID: "org1", ActionType: "x",
		Status: domain.ConfirmationStatusPending, ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour),
	})
	assert.NoError(t, err)

	rec := doAdmin(e, http.MethodPost, "/admin/confirmations/sweep", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	var result map[string]int
	json.Unmarshal(rec.Body.Bytes(), &result)
	assert.Equal(t, 1, result["expired"])
}
