package telemetry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"github.com/modelgate/modelgate/internal/domain"
	"github.com/modelgate/modelgate/internal/store"
)

// Recorder writes the per-call audit trail. Writes are fire-and-forget
// side effects of an already-computed result: failures are logged, never
// propagated, never retried.
type Recorder struct {
	store   store.Store
	metrics *Metrics
	window  *Window
}

// NewRecorder creates a recorder. metrics and window may be nil in
// tests that only exercise persistence.
func NewRecorder(s store.Store, metrics *Metrics, window *Window) *Recorder {
	return &Recorder{store: s, metrics: metrics, window: window}
}

// RecordAudit appends one immutable audit entry.
func (r *Recorder) RecordAudit(ctx context.Context, entry *domain.AuditEntry) {
	if err := r.store.AppendAuditEntry(ctx, entry); err != nil {
		log.Printf("WARN: failed to append audit entry %s: %v", entry.AuditID, err)
	}
}

// RecordUsage appends one usage record.
func (r *Recorder) RecordUsage(ctx context.Context, record *domain.UsageRecord) {
	if err := r.store.AppendUsageRecord(ctx, record); err != nil {
		log.Printf("WARN: failed to append usage record %s: %v", record.RecordID, err)
	}
}

// RecordSample updates the rolling window and Prometheus metrics for
// one completed call.
func (r *Recorder) RecordSample(entry *domain.AuditEntry) {
	if r.window != nil {
		r.window.Add(domain.MetricsSample{
			Ts:        entry.CreatedAt,
			Provider:  entry.Provider,
			LatencyMs: entry.LatencyMs,
			Success:   entry.Success,
		})
	}
	if r.metrics != nil {
		status := "failure"
		if entry.Success {
			status = "success"
		}
		provider := entry.Provider
		if provider == "" {
			provider = "none"
		}
		r.metrics.CallsTotal.WithLabelValues(string(entry.Task), provider, status).Inc()
		r.metrics.CallLatency.WithLabelValues(provider).Observe(float64(entry.LatencyMs))
		if entry.TotalTokens > 0 {
			r.metrics.TokensTotal.WithLabelValues(entry.OrgID).Add(float64(entry.TotalTokens))
		}
	}
}

// Fingerprint returns the privacy-preserving hash of a rendered prompt.
// The raw prompt is never persisted.
func Fingerprint(messages []domain.Message) string {
	h := sha256.New()
	for _, m := range messages {
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
