// Package store defines the storage interface and implementations.
package store

import (
	"context"
	"time"

	"github.com/modelgate/modelgate/internal/domain"
)

// Store defines the interface for data persistence. Audit and usage
// tables are append-only; rows are never updated after insertion.
type Store interface {
	// Budget operations, keyed by (org_id, period)
	GetBudget(ctx context.Context, orgID, period string) (*domain.BudgetRecord, error)
	UpsertBudget(ctx context.Context, record *domain.BudgetRecord) error
	AddBudgetConsumption(ctx context.Context, orgID, period string, tokens int64) error

	// Confirmation operations
	CreateConfirmation(ctx context.Context, confirmation *domain.PendingConfirmation) error
	GetConfirmation(ctx context.Context, id string) (*domain.PendingConfirmation, error)
	// ResolveConfirmation transitions a PENDING confirmation to a terminal
	// status. Returns false when the row was not pending anymore.
	ResolveConfirmation(ctx context.Context, id string, status domain.ConfirmationStatus, resolvedAt time.Time) (bool, error)
	// ExpireConfirmations transitions every pending confirmation past its
	// expiry to EXPIRED and returns the number of rows changed.
	ExpireConfirmations(ctx context.Context, now time.Time) (int, error)

	// Audit / usage (append-only)
	AppendAuditEntry(ctx context.Context, entry *domain.AuditEntry) error
	AppendUsageRecord(ctx context.Context, record *domain.UsageRecord) error
	ListAuditEntries(ctx context.Context, orgID string, limit int) ([]domain.AuditEntry, error)
	ListUsageRecords(ctx context.Context, orgID string, limit int) ([]domain.UsageRecord, error)

	// Routing config persistence (single row, replaced wholesale)
	SaveRoutingConfig(ctx context.Context, cfg *domain.GlobalRoutingConfig) error
	LoadRoutingConfig(ctx context.Context) (*domain.GlobalRoutingConfig, error)

	// Lifecycle
	Close() error
}
