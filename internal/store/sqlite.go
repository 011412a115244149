package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/modelgate/modelgate/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS budgets (
			org_id TEXT NOT NULL,
			period TEXT NOT NULL,
			allocated_tokens INTEGER NOT NULL,
			consumed_tokens INTEGER NOT NULL DEFAULT 0,
			soft_limit_percent REAL NOT NULL DEFAULT 80,
			overage_allowed INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (org_id, period)
		)`,
		`CREATE TABLE IF NOT EXISTS confirmations (
			confirmation_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			org_id TEXT NOT NULL,
			channel TEXT,
			action_type TEXT NOT NULL,
			payload TEXT,
			status TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			resolved_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_confirmations_status ON confirmations(status, expires_at)`,
		`CREATE TABLE IF NOT EXISTS audit_entries (
			audit_id TEXT PRIMARY KEY,
			correlation_id TEXT NOT NULL,
			task TEXT NOT NULL,
			user_id TEXT NOT NULL,
			org_id TEXT NOT NULL,
			channel TEXT,
			provider TEXT,
			model TEXT,
			success INTEGER NOT NULL,
			error TEXT,
			prompt_fingerprint TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			cancelled INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_org ON audit_entries(org_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_correlation ON audit_entries(correlation_id)`,
		`CREATE TABLE IF NOT EXISTS usage_records (
			record_id TEXT PRIMARY KEY,
			correlation_id TEXT NOT NULL,
			org_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			task TEXT NOT NULL,
			provider TEXT,
			model TEXT,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_org ON usage_records(org_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS routing_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			config TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// GetBudget returns the budget record for (orgID, period), or nil when
// no record exists.
func (s *SQLiteStore) GetBudget(ctx context.Context, orgID, period string) (*domain.BudgetRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT org_id, period, allocated_tokens, consumed_tokens, soft_limit_percent, overage_allowed, updated_at
		FROM budgets WHERE org_id = ? AND period = ?`, orgID, period)

	var rec domain.BudgetRecord
	var overage int
	err := row.Scan(&rec.OrgID, &rec.Period, &rec.AllocatedTokens, &rec.ConsumedTokens, &rec.SoftLimitPercent, &overage, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	rec.OverageAllowed = overage != 0
	return &rec, nil
}

// UpsertBudget inserts or replaces the budget record for its (org, period).
// Consumption already recorded for the period is preserved.
func (s *SQLiteStore) UpsertBudget(ctx context.Context, record *domain.BudgetRecord) error {
	overage := 0
	if record.OverageAllowed {
		overage = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (org_id, period, allocated_tokens, consumed_tokens, soft_limit_percent, overage_allowed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(org_id, period) DO UPDATE SET
			allocated_tokens = excluded.allocated_tokens,
			soft_limit_percent = excluded.soft_limit_percent,
			overage_allowed = excluded.overage_allowed,
			updated_at = excluded.updated_at`,
		record.OrgID, record.Period, record.AllocatedTokens, record.ConsumedTokens,
		record.SoftLimitPercent, overage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert budget: %w", err)
	}
	return nil
}

// AddBudgetConsumption increments consumed tokens for (orgID, period).
// Consumption against a missing record creates one with zero allocation,
// keeping the counter monotonic even for unlimited orgs.
func (s *SQLiteStore) AddBudgetConsumption(ctx context.Context, orgID, period string, tokens int64) error {
	if tokens < 0 {
		return fmt.Errorf("negative consumption: %d", tokens)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (org_id, period, allocated_tokens, consumed_tokens, updated_at)
		VALUES (?, ?, 0, ?, ?)
		ON CONFLICT(org_id, period) DO UPDATE SET
			consumed_tokens = consumed_tokens + excluded.consumed_tokens,
			updated_at = excluded.updated_at`,
		orgID, period, tokens, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add consumption: %w", err)
	}
	return nil
}

// CreateConfirmation inserts a new pending confirmation.
func (s *SQLiteStore) CreateConfirmation(ctx context.Context, c *domain.PendingConfirmation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO confirmations (confirmation_id, user_id, org_id, channel, action_type, payload, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.OrgID, c.Channel, c.ActionType, string(c.Payload), string(c.Status), c.ExpiresAt, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create confirmation: %w", err)
	}
	return nil
}

// GetConfirmation returns the confirmation with the given id, or nil.
func (s *SQLiteStore) GetConfirmation(ctx context.Context, id string) (*domain.PendingConfirmation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT confirmation_id, user_id, org_id, channel, action_type, payload, status, expires_at, created_at, resolved_at
		FROM confirmations WHERE confirmation_id = ?`, id)

	var c domain.PendingConfirmation
	var channel, payload sql.NullString
	var status string
	var resolvedAt sql.NullTime
	err := row.Scan(&c.ID, &c.UserID, &c.OrgID, &channel, &c.ActionType, &payload, &status, &c.ExpiresAt, &c.CreatedAt, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get confirmation: %w", err)
	}
	c.Channel = channel.String
	if payload.Valid && payload.String != "" {
		c.Payload = json.RawMessage(payload.String)
	}
	c.Status = domain.ConfirmationStatus(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	return &c, nil
}

// ResolveConfirmation transitions a pending confirmation to a terminal
// status. The WHERE clause guards against racing resolutions.
func (s *SQLiteStore) ResolveConfirmation(ctx context.Context, id string, status domain.ConfirmationStatus, resolvedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE confirmations SET status = ?, resolved_at = ?
		WHERE confirmation_id = ? AND status = ?`,
		string(status), resolvedAt, id, string(domain.ConfirmationStatusPending))
	if err != nil {
		return false, fmt.Errorf("failed to resolve confirmation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ExpireConfirmations marks every pending confirmation past its expiry
// as EXPIRED.
func (s *SQLiteStore) ExpireConfirmations(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE confirmations SET status = ?, resolved_at = ?
		WHERE status = ? AND expires_at <= ?`,
		string(domain.ConfirmationStatusExpired), now, string(domain.ConfirmationStatusPending), now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire confirmations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}

// AppendAuditEntry inserts one immutable audit row.
func (s *SQLiteStore) AppendAuditEntry(ctx context.Context, e *domain.AuditEntry) error {
	success, cancelled := 0, 0
	if e.Success {
		success = 1
	}
	if e.Cancelled {
		cancelled = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (audit_id, correlation_id, task, user_id, org_id, channel, provider, model,
			success, error, prompt_fingerprint, prompt_tokens, completion_tokens, total_tokens, latency_ms, cancelled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.AuditID, e.CorrelationID, string(e.Task), e.UserID, e.OrgID, e.Channel, e.Provider, e.Model,
		success, e.Error, e.PromptFingerprint, e.PromptTokens, e.CompletionTokens, e.TotalTokens, e.LatencyMs, cancelled, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// AppendUsageRecord inserts one usage row.
func (s *SQLiteStore) AppendUsageRecord(ctx context.Context, r *domain.UsageRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records (record_id, correlation_id, org_id, user_id, task, provider, model,
			prompt_tokens, completion_tokens, total_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RecordID, r.CorrelationID, r.OrgID, r.UserID, string(r.Task), r.Provider, r.Model,
		r.PromptTokens, r.CompletionTokens, r.TotalTokens, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}
	return nil
}

// ListAuditEntries returns the most recent audit entries for an org.
func (s *SQLiteStore) ListAuditEntries(ctx context.Context, orgID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT audit_id, correlation_id, task, user_id, org_id, channel, provider, model,
			success, error, prompt_fingerprint, prompt_tokens, completion_tokens, total_tokens, latency_ms, cancelled, created_at
		FROM audit_entries WHERE org_id = ? ORDER BY created_at DESC LIMIT ?`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var task string
		var channel, provider, model, errMsg sql.NullString
		var success, cancelled int
		if err := rows.Scan(&e.AuditID, &e.CorrelationID, &task, &e.UserID, &e.OrgID, &channel, &provider, &model,
			&success, &errMsg, &e.PromptFingerprint, &e.PromptTokens, &e.CompletionTokens, &e.TotalTokens,
			&e.LatencyMs, &cancelled, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Task = domain.Task(task)
		e.Channel = channel.String
		e.Provider = provider.String
		e.Model = model.String
		e.Error = errMsg.String
		e.Success = success != 0
		e.Cancelled = cancelled != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListUsageRecords returns the most recent usage records for an org.
func (s *SQLiteStore) ListUsageRecords(ctx context.Context, orgID string, limit int) ([]domain.UsageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, correlation_id, org_id, user_id, task, provider, model,
			prompt_tokens, completion_tokens, total_tokens, created_at
		FROM usage_records WHERE org_id = ? ORDER BY created_at DESC LIMIT ?`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	defer rows.Close()

	var records []domain.UsageRecord
	for rows.Next() {
		var r domain.UsageRecord
		var task string
		var provider, model sql.NullString
		if err := rows.Scan(&r.RecordID, &r.CorrelationID, &r.OrgID, &r.UserID, &task, &provider, &model,
			&r.PromptTokens, &r.CompletionTokens, &r.TotalTokens, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		r.Task = domain.Task(task)
		r.Provider = provider.String
		r.Model = model.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveRoutingConfig persists the routing config as a single JSON blob,
// replaced wholesale.
func (s *SQLiteStore) SaveRoutingConfig(ctx context.Context, cfg *domain.GlobalRoutingConfig) error {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal routing config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO routing_config (id, config, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET config = excluded.config, updated_at = excluded.updated_at`,
		string(blob), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save routing config: %w", err)
	}
	return nil
}

// LoadRoutingConfig returns the persisted routing config, or nil when
// none has been saved yet.
func (s *SQLiteStore) LoadRoutingConfig(ctx context.Context) (*domain.GlobalRoutingConfig, error) {
	row := s.db.QueryRowContext(ctx, `SELECT config FROM routing_config WHERE id = 1`)
	var blob string
	err := row.Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load routing config: %w", err)
	}
	var cfg domain.GlobalRoutingConfig
	if err := json.Unmarshal([]byte(blob), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal routing config: %w", err)
	}
	return &cfg, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
