// Package confirm implements the pending-confirmation state machine for
// high-impact actions.
package confirm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modelgate/modelgate/internal/domain"
	"github.com/modelgate/modelgate/internal/store"
)

// DefaultExpiry is the confirmation window used when a request does not
// set one.
const DefaultExpiry = 30 * time.Minute

// Gate tracks pending high-impact action confirmations. Transitions are
// pending -> confirmed | declined | expired; terminal states are final.
// The creating user is the only actor permitted to resolve an entry;
// the ownership check is an authorization boundary, not a convenience.
type Gate struct {
	store         store.Store
	defaultExpiry time.Duration
	now           func() time.Time
}

// NewGate creates a confirmation gate. expiry <= 0 uses DefaultExpiry.
func NewGate(s store.Store, expiry time.Duration) *Gate {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Gate{store: s, defaultExpiry: expiry, now: time.Now}
}

// Create records a new pending confirmation and returns it.
func (g *Gate) Create(ctx context.Context, req domain.ConfirmationRequest) (*domain.PendingConfirmation, error) {
	if req.UserID == "" || req.ActionType == "" {
		return nil, fmt.Errorf("user id and action type are required")
	}

	expiry := g.defaultExpiry
	if req.ExpiresInMinutes > 0 {
		expiry = time.Duration(req.ExpiresInMinutes) * time.Minute
	}

	now := g.now()
	c := &domain.PendingConfirmation{
		ID:         "cnf_" + uuid.New().String()[:8],
		UserID:     req.UserID,
		OrgID:      req.OrgID,
		Channel:    req.Channel,
		ActionType: req.ActionType,
		Payload:    req.Payload,
		Status:     domain.ConfirmationStatusPending,
		ExpiresAt:  now.Add(expiry),
		CreatedAt:  now,
	}
	if err := g.store.CreateConfirmation(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create confirmation: %w", err)
	}
	return c, nil
}

// Confirm resolves a pending confirmation as confirmed and returns its
// payload so the caller can commit the gated action.
func (g *Gate) Confirm(ctx context.Context, id, userID string) (json.RawMessage, error) {
	c, err := g.resolve(ctx, id, userID, domain.ConfirmationStatusConfirmed)
	if err != nil {
		return nil, err
	}
	return c.Payload, nil
}

// Decline resolves a pending confirmation as declined.
func (g *Gate) Decline(ctx context.Context, id, userID string) error {
	_, err := g.resolve(ctx, id, userID, domain.ConfirmationStatusDeclined)
	return err
}

// resolve performs the shared transition checks: existence, ownership,
// terminal-state, expiry, then the guarded status update.
func (g *Gate) resolve(ctx context.Context, id, userID string, status domain.ConfirmationStatus) (*domain.PendingConfirmation, error) {
	c, err := g.store.GetConfirmation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get confirmation: %w", err)
	}
	if c == nil {
		return nil, domain.ErrConfirmationNotFound
	}

	// Ownership first: a non-owner learns nothing about the entry's
	// state, not even that it expired.
	if c.UserID != userID {
		return nil, domain.ErrWrongOwner
	}

	if c.Status != domain.ConfirmationStatusPending {
		if c.Status == domain.ConfirmationStatusExpired {
			return nil, domain.ErrConfirmationExpired
		}
		return nil, domain.ErrAlreadyResolved
	}

	now := g.now()
	if !c.ExpiresAt.After(now) {
		// Lazy expiry: the sweeper has not visited this row yet.
		if _, err := g.store.ResolveConfirmation(ctx, id, domain.ConfirmationStatusExpired, now); err != nil {
			return nil, fmt.Errorf("failed to expire confirmation: %w", err)
		}
		return nil, domain.ErrConfirmationExpired
	}

	changed, err := g.store.ResolveConfirmation(ctx, id, status, now)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve confirmation: %w", err)
	}
	if !changed {
		// Lost a race against another resolution.
		return nil, domain.ErrAlreadyResolved
	}

	c.Status = status
	c.ResolvedAt = &now
	return c, nil
}

// SweepExpired transitions every pending confirmation past its expiry
// to expired and returns the count. Running it twice is a no-op the
// second time.
func (g *Gate) SweepExpired(ctx context.Context) (int, error) {
	n, err := g.store.ExpireConfirmations(ctx, g.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep confirmations: %w", err)
	}
	return n, nil
}
