package budget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/modelgate/modelgate/tests/helpers"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	l := NewLedger(helpers.NewTestSQLiteStore(t))
	l.now = func() time.Time { return time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC) }
	return l
}

func TestCurrentPeriod(t *testing.T) {
	assert.Equal(t, "2026-08", CurrentPeriod(time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)))
	// Period boundaries are UTC.
	assert.Equal(t, "2026-09", CurrentPeriod(time.Date(2026, 8, 31, 23, 30, 0, 0, time.FixedZone("behind", -3600))))
}

func TestCheckBudgetMissingRecordIsUnlimited(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	status, err := l.CheckBudget(ctx, "org1")
	assert.NoError(t, err)
	assert.True(t, status.Unlimited)
	assert.False(t, status.HardLimitReached)
	assert.False(t, status.SoftLimitReached)
}

func TestSetAndCheckBudget(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	status, err := l.SetBudget(ctx, "org1", 1000, 80, false)
	assert.NoError(t, err)
	assert.False(t, status.Unlimited)
	assert.Equal(t, int64(1000), status.AllocatedTokens)
	assert.Equal(t, int64(1000), status.RemainingTokens)
	assert.Equal(t, "2026-08", status.Period)
}

func TestSetBudgetValidation(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	_, err := l.SetBudget(ctx, "", 1000, 80, false)
	assert.Error(t, err)

	_, err = l.SetBudget(ctx, "org1", -5, 80, false)
	assert.Error(t, err)

	// Out-of-range soft limit falls back to the default.
	status, err := l.SetBudget(ctx, "org1", 1000, 150, false)
	assert.NoError(t, err)
	assert.Equal(t, float64(DefaultSoftLimitPercent), status.SoftLimitPercent)
}

func TestSoftLimit(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	_, err := l.SetBudget(ctx, "org1", 1000, 80, false)
	assert.NoError(t, err)

	l.ConsumeBudget(ctx, "org1", 799)
	status, err := l.CheckBudget(ctx, "org1")
	assert.NoError(t, err)
	assert.False(t, status.SoftLimitReached)

	l.ConsumeBudget(ctx, "org1", 1)
	status, err = l.CheckBudget(ctx, "org1")
	assert.NoError(t, err)
	assert.True(t, status.SoftLimitReached)
	assert.False(t, status.HardLimitReached)
}

func TestHardLimit(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	_, err := l.SetBudget(ctx, "org1", 1000, 80, false)
	assert.NoError(t, err)

	l.ConsumeBudget(ctx, "org1", 1000)
	status, err := l.CheckBudget(ctx, "org1")
	assert.NoError(t, err)
	assert.True(t, status.HardLimitReached)
	assert.Equal(t, int64(0), status.RemainingTokens)
}

func TestHardLimitWithOverageAllowed(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	_, err := l.SetBudget(ctx, "org1", 1000, 80, true)
	assert.NoError(t, err)

	l.ConsumeBudget(ctx, "org1", 1500)
	status, err := l.CheckBudget(ctx, "org1")
	assert.NoError(t, err)
	assert.False(t, status.HardLimitReached)
	assert.True(t, status.SoftLimitReached)
	assert.Equal(t, int64(-500), status.RemainingTokens)
}

func TestConsumeBudgetMonotonic(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	_, err := l.SetBudget(ctx, "org1", 1000, 80, false)
	assert.NoError(t, err)

	l.ConsumeBudget(ctx, "org1", 100)
	l.ConsumeBudget(ctx, "org1", 0)  // ignored
	l.ConsumeBudget(ctx, "org1", -5) // ignored
	l.ConsumeBudget(ctx, "org1", 50)

	status, err := l.CheckBudget(ctx, "org1")
	assert.NoError(t, err)
	assert.Equal(t, int64(150), status.ConsumedTokens)
}

func TestConsumeBudgetUnlimitedOrgStillCounted(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	l.ConsumeBudget(ctx, "org1", 42)
	status, err := l.CheckBudget(ctx, "org1")
	assert.NoError(t, err)
	assert.True(t, status.Unlimited)
	assert.Equal(t, int64(42), status.ConsumedTokens)
}
