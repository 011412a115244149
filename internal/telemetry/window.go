// Package telemetry records the audit trail and real-time liveness
// metrics for gateway calls.
package telemetry

import (
	"sort"
	"sync"
	"time"

	"github.com/modelgate/modelgate/internal/domain"
)

// DefaultRetention is the rolling window length for liveness metrics.
const DefaultRetention = time.Hour

// Window is a bounded rolling window of call samples. Samples older
// than the retention are evicted on every write.
type Window struct {
	mu        sync.Mutex
	samples   []domain.MetricsSample
	retention time.Duration
	now       func() time.Time
}

// RealtimeStats is a snapshot of the rolling window.
type RealtimeStats struct {
	WindowSeconds int     `json:"window_seconds"`
	Calls         int     `json:"calls"`
	Errors        int     `json:"errors"`
	ErrorRate     float64 `json:"error_rate"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	P95LatencyMs  int64   `json:"p95_latency_ms"`
}

// NewWindow creates a rolling window. retention <= 0 uses the default.
func NewWindow(retention time.Duration) *Window {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Window{retention: retention, now: time.Now}
}

// Add appends a sample and prunes everything older than the retention.
func (w *Window) Add(sample domain.MetricsSample) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if sample.Ts.IsZero() {
		sample.Ts = w.now()
	}
	cutoff := w.now().Add(-w.retention)

	kept := w.samples[:0]
	for _, s := range w.samples {
		if s.Ts.After(cutoff) {
			kept = append(kept, s)
		}
	}
	w.samples = append(kept, sample)
}

// Snapshot computes current window statistics.
func (w *Window) Snapshot() RealtimeStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-w.retention)
	stats := RealtimeStats{WindowSeconds: int(w.retention.Seconds())}

	var latencies []int64
	var totalLatency int64
	for _, s := range w.samples {
		if !s.Ts.After(cutoff) {
			continue
		}
		stats.Calls++
		if !s.Success {
			stats.Errors++
		}
		latencies = append(latencies, s.LatencyMs)
		totalLatency += s.LatencyMs
	}

	if stats.Calls == 0 {
		return stats
	}
	stats.ErrorRate = float64(stats.Errors) / float64(stats.Calls)
	stats.AvgLatencyMs = float64(totalLatency) / float64(stats.Calls)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	idx := (len(latencies)*95 + 99) / 100
	if idx > 0 {
		idx--
	}
	stats.P95LatencyMs = latencies[idx]
	return stats
}
