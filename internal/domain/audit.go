package domain

import "time"

// AuditEntry is the immutable record of one gateway call. Append-only,
// never updated after insertion. The prompt itself is never stored,
// only a hashed fingerprint.
type AuditEntry struct {
	AuditID           string    `json:"audit_id"`
	CorrelationID     string    `json:"correlation_id"`
	Task              Task      `json:"task"`
	UserID            string    `json:"user_id"`
	OrgID             string    `json:"org_id"`
	Channel           string    `json:"channel,omitempty"`
	Provider          string    `json:"provider,omitempty"`
	Model             string    `json:"model,omitempty"`
	Success           bool      `json:"success"`
	Error             string    `json:"error,omitempty"`
	PromptFingerprint string    `json:"prompt_fingerprint"`
	PromptTokens      int       `json:"prompt_tokens"`
	CompletionTokens  int       `json:"completion_tokens"`
	TotalTokens       int       `json:"total_tokens"`
	LatencyMs         int64     `json:"latency_ms"`
	Cancelled         bool      `json:"cancelled,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// UsageRecord is the append-only per-call token accounting row.
type UsageRecord struct {
	RecordID         string    `json:"record_id"`
	CorrelationID    string    `json:"correlation_id"`
	OrgID            string    `json:"org_id"`
	UserID           string    `json:"user_id"`
	Task             Task      `json:"task"`
	Provider         string    `json:"provider,omitempty"`
	Model            string    `json:"model,omitempty"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}

// MetricsSample is one point in the rolling real-time window.
type MetricsSample struct {
	Ts        time.Time `json:"ts"`
	Provider  string    `json:"provider"`
	LatencyMs int64     `json:"latency_ms"`
	Success   bool      `json:"success"`
}
