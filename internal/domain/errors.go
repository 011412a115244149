package domain

import "errors"

// Sentinel errors for the gateway call path. Callers branch on these
// with errors.Is; none of them is ever surfaced as a panic or an HTTP
// 5xx from the run-task endpoint.
var (
	// ErrUnknownTask means the task is not in the policy registry.
	// Configuration defect, fatal to the call, never retried.
	ErrUnknownTask = errors.New("unknown task")

	// ErrRoleNotAllowed means the caller's role is not permitted to run
	// the task.
	ErrRoleNotAllowed = errors.New("role not allowed for task")

	// ErrRateLimitExceeded means the task's rate limit was hit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrNoProviderAvailable means no configured provider reports itself
	// available. Fatal, never retried.
	ErrNoProviderAvailable = errors.New("no provider available")

	// ErrBudgetExhausted means the organization hit its hard token limit.
	// Checked pre-flight, no provider is contacted.
	ErrBudgetExhausted = errors.New("organization token budget exhausted")

	// ErrAllProvidersFailed means every route and retry attempt failed.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// Confirmation gate outcomes. Each is a distinct, user-facing reason.
	ErrConfirmationNotFound = errors.New("confirmation not found")
	ErrWrongOwner           = errors.New("confirmation owned by another user")
	ErrAlreadyResolved      = errors.New("confirmation already resolved")
	ErrConfirmationExpired  = errors.New("confirmation expired")
)
