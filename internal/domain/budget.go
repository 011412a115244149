package domain

import "time"

// BudgetRecord is the persisted token budget for one (org, period).
type BudgetRecord struct {
	OrgID            string    `json:"org_id"`
	Period           string    `json:"period"` // e.g. "2026-08"
	AllocatedTokens  int64     `json:"allocated_tokens"`
	ConsumedTokens   int64     `json:"consumed_tokens"`
	SoftLimitPercent float64   `json:"soft_limit_percent"`
	OverageAllowed   bool      `json:"overage_allowed"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// OrgBudgetStatus is the derived view returned by budget checks.
// A missing budget record is reported as Unlimited: restriction is an
// explicit opt-in, absence of a record never blocks a call.
type OrgBudgetStatus struct {
	OrgID            string  `json:"org_id"`
	Period           string  `json:"period"`
	Unlimited        bool    `json:"unlimited"`
	AllocatedTokens  int64   `json:"allocated_tokens"`
	ConsumedTokens   int64   `json:"consumed_tokens"`
	RemainingTokens  int64   `json:"remaining_tokens"`
	PercentUsed      float64 `json:"percent_used"`
	SoftLimitPercent float64 `json:"soft_limit_percent"`
	OverageAllowed   bool    `json:"overage_allowed"`
	SoftLimitReached bool    `json:"soft_limit_reached"`
	HardLimitReached bool    `json:"hard_limit_reached"`
}
