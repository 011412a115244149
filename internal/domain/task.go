// Package domain defines the core domain models for the gateway.
package domain

// Task is an enumerated kind of model invocation. The set is closed:
// adding a kind requires a registry update, callers cannot invent one.
type Task string

const (
	TaskIntentClassify Task = "INTENT_CLASSIFY"
	TaskFieldExtract   Task = "FIELD_EXTRACT"
	TaskDocSummarize   Task = "DOC_SUMMARIZE"
	TaskChatRespond    Task = "CHAT_RESPOND"
	TaskActionPlan     Task = "ACTION_PLAN"
)

// Role represents the caller's role within an organization.
type Role string

const (
	RoleViewer    Role = "viewer"
	RoleMember    Role = "member"
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
)

// RateLimit caps how often a task may be invoked.
type RateLimit struct {
	PerMinute int `json:"per_minute"`
	PerHour   int `json:"per_hour"`
}

// TaskPolicy is the per-task policy record. Every task has exactly one.
type TaskPolicy struct {
	Task                 Task       `json:"task"`
	AllowedRoles         []Role     `json:"allowed_roles"`
	RequiresConfirmation bool       `json:"requires_confirmation"`
	RequiresApproval     bool       `json:"requires_approval"`
	MaxTokensPerCall     int        `json:"max_tokens_per_call,omitempty"` // 0 means no ceiling
	RateLimit            *RateLimit `json:"rate_limit,omitempty"`
}
