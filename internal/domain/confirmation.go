package domain

import (
	"encoding/json"
	"time"
)

// ConfirmationStatus is the 4-state confirmation machine. PENDING is the
// only non-terminal state; the three terminal states never retransition.
type ConfirmationStatus string

const (
	ConfirmationStatusPending   ConfirmationStatus = "PENDING"
	ConfirmationStatusConfirmed ConfirmationStatus = "CONFIRMED"
	ConfirmationStatusDeclined  ConfirmationStatus = "DECLINED"
	ConfirmationStatusExpired   ConfirmationStatus = "EXPIRED"
)

// PendingConfirmation tracks one high-impact action awaiting explicit
// human confirmation. Only the creating UserID may resolve it.
type PendingConfirmation struct {
	ID         string             `json:"confirmation_id"`
	UserID     string             `json:"user_id"`
	OrgID      string             `json:"org_id"`
	Channel    string             `json:"channel,omitempty"`
	ActionType string             `json:"action_type"`
	Payload    json.RawMessage    `json:"payload,omitempty"`
	Status     ConfirmationStatus `json:"status"`
	ExpiresAt  time.Time          `json:"expires_at"`
	CreatedAt  time.Time          `json:"created_at"`
	ResolvedAt *time.Time         `json:"resolved_at,omitempty"`
}

// ConfirmationRequest creates a pending confirmation.
type ConfirmationRequest struct {
	UserID           string          `json:"user_id"`
	OrgID            string          `json:"org_id"`
	Channel          string          `json:"channel,omitempty"`
	ActionType       string          `json:"action_type"`
	Payload          json.RawMessage `json:"payload,omitempty"`
	ExpiresInMinutes int             `json:"expires_in_minutes,omitempty"` // 0 uses the default window
}
