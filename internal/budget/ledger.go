// Package budget implements period-scoped token accounting per
// organization.
package budget

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/modelgate/modelgate/internal/domain"
	"github.com/modelgate/modelgate/internal/store"
)

// DefaultSoftLimitPercent is used when an admin sets a budget without a
// soft limit.
const DefaultSoftLimitPercent = 80

// Ledger tracks allocated vs consumed tokens per (org, period).
//
// Missing records fail open: an org with no budget record is unlimited.
// Restricting an org requires an explicit SetBudget; absence never
// blocks a call. Concurrent consumption for one org may race; the
// counter is best-effort, not exact-once, which is accepted to avoid
// serializing all calls for an org.
type Ledger struct {
	store store.Store
	now   func() time.Time
}

// NewLedger creates a ledger over the given store.
func NewLedger(s store.Store) *Ledger {
	return &Ledger{store: s, now: time.Now}
}

// CurrentPeriod returns the calendar-month bucket for t, e.g. "2026-08".
func CurrentPeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// CheckBudget returns the org's budget status for the current period.
// Read-only; never mutates.
func (l *Ledger) CheckBudget(ctx context.Context, orgID string) (*domain.OrgBudgetStatus, error) {
	period := CurrentPeriod(l.now())

	rec, err := l.store.GetBudget(ctx, orgID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to check budget: %w", err)
	}

	status := &domain.OrgBudgetStatus{OrgID: orgID, Period: period}
	if rec == nil || rec.AllocatedTokens <= 0 {
		status.Unlimited = true
		if rec != nil {
			status.ConsumedTokens = rec.ConsumedTokens
		}
		return status, nil
	}

	status.AllocatedTokens = rec.AllocatedTokens
	status.ConsumedTokens = rec.ConsumedTokens
	status.RemainingTokens = rec.AllocatedTokens - rec.ConsumedTokens
	status.PercentUsed = float64(rec.ConsumedTokens) / float64(rec.AllocatedTokens) * 100
	status.SoftLimitPercent = rec.SoftLimitPercent
	status.OverageAllowed = rec.OverageAllowed
	status.SoftLimitReached = status.PercentUsed >= rec.SoftLimitPercent
	status.HardLimitReached = status.RemainingTokens <= 0 && !rec.OverageAllowed
	return status, nil
}

// ConsumeBudget records token consumption for the current period.
// Best-effort: storage failures are logged and swallowed so accounting
// never blocks the primary call path.
func (l *Ledger) ConsumeBudget(ctx context.Context, orgID string, tokens int) {
	if orgID == "" || tokens <= 0 {
		return
	}
	period := CurrentPeriod(l.now())
	if err := l.store.AddBudgetConsumption(ctx, orgID, period, int64(tokens)); err != nil {
		log.Printf("WARN: failed to record budget consumption for org %s: %v", orgID, err)
	}
}

// SetBudget upserts the current period's budget record for an org.
// Admin-only; the caller layer is responsible for the superuser check.
func (l *Ledger) SetBudget(ctx context.Context, orgID string, allocated int64, softLimitPercent float64, overageAllowed bool) (*domain.OrgBudgetStatus, error) {
	if orgID == "" {
		return nil, fmt.Errorf("org id is required")
	}
	if allocated < 0 {
		return nil, fmt.Errorf("allocated tokens must be non-negative")
	}
	if softLimitPercent <= 0 || softLimitPercent > 100 {
		softLimitPercent = DefaultSoftLimitPercent
	}

	rec := &domain.BudgetRecord{
		OrgID:            orgID,
		Period:           CurrentPeriod(l.now()),
		AllocatedTokens:  allocated,
		SoftLimitPercent: softLimitPercent,
		OverageAllowed:   overageAllowed,
	}
	if err := l.store.UpsertBudget(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to set budget: %w", err)
	}
	return l.CheckBudget(ctx, orgID)
}
