package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/modelgate/modelgate/internal/domain"
	"github.com/modelgate/modelgate/tests/helpers"
)

func TestRecordSampleUpdatesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	window := NewWindow(time.Hour)
	r := NewRecorder(helpers.NewTestSQLiteStore(t), metrics, window)

	r.RecordSample(&domain.AuditEntry{
		Task:        domain.TaskChatRespond,
		OrgID:       "org1",
		Provider:    "openai",
		Success:     true,
		TotalTokens: 15,
		LatencyMs:   120,
		CreatedAt:   time.Now(),
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CallsTotal.WithLabelValues("CHAT_RESPOND", "openai", "success")))
	assert.Equal(t, float64(15), testutil.ToFloat64(metrics.TokensTotal.WithLabelValues("org1")))
	assert.Equal(t, 1, window.Snapshot().Calls)
}

func TestRecordSampleWithoutProvider(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	r := NewRecorder(helpers.NewTestSQLiteStore(t), metrics, nil)

	// A call rejected before any provider was contacted is labeled
	// "none" so the series stays well-formed.
	r.RecordSample(&domain.AuditEntry{
		Task:      domain.TaskChatRespond,
		OrgID:     "org1",
		Success:   false,
		CreatedAt: time.Now(),
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CallsTotal.WithLabelValues("CHAT_RESPOND", "none", "failure")))
}

func TestRecordAuditAndUsagePersist(t *testing.T) {
	ctx := context.Background()
	s := helpers.NewTestSQLiteStore(t)
	r := NewRecorder(s, nil, nil)

	r.RecordAudit(ctx, &domain.AuditEntry{
		AuditID: "aud_1", CorrelationID: "req_1", Task: domain.TaskChatRespond,
		UserID: "u1", OrgID: "org1", Success: true, PromptFingerprint: "abc",
		CreatedAt: time.Now().UTC(),
	})
	r.RecordUsage(ctx, &domain.UsageRecord{
		RecordID: "use_1", CorrelationID: "req_1", OrgID: "org1", UserID: "u1",
		Task: domain.TaskChatRespond, TotalTokens: 10, CreatedAt: time.Now().UTC(),
	})

	entries, err := s.ListAuditEntries(ctx, "org1", 10)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	records, err := s.ListUsageRecords(ctx, "org1", 10)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
}
