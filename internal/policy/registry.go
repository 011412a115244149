package policy

import (
	"context"
	"fmt"

	"github.com/modelgate/modelgate/internal/domain"
)

// Registry holds one policy per task. The table is populated at startup
// and read-only afterwards; lookups are pure and never retried, since a
// miss is a configuration defect, not a transient failure.
type Registry struct {
	policies map[domain.Task]domain.TaskPolicy
	engine   *Engine
	limiter  *rateLimiter
}

// NewRegistry creates a registry over the given policy table.
func NewRegistry(engine *Engine, policies []domain.TaskPolicy) (*Registry, error) {
	table := make(map[domain.Task]domain.TaskPolicy, len(policies))
	for _, p := range policies {
		if _, dup := table[p.Task]; dup {
			return nil, fmt.Errorf("duplicate policy for task %s", p.Task)
		}
		table[p.Task] = p
	}
	return &Registry{
		policies: table,
		engine:   engine,
		limiter:  newRateLimiter(),
	}, nil
}

// GetPolicy returns the policy for a task.
func (r *Registry) GetPolicy(task domain.Task) (domain.TaskPolicy, error) {
	p, ok := r.policies[task]
	if !ok {
		return domain.TaskPolicy{}, fmt.Errorf("%w: %s", domain.ErrUnknownTask, task)
	}
	return p, nil
}

// IsAllowedForRole reports whether role may run task, consulting the
// OPA engine with the task's allowed roles as data.
func (r *Registry) IsAllowedForRole(ctx context.Context, task domain.Task, role domain.Role) (bool, error) {
	p, err := r.GetPolicy(task)
	if err != nil {
		return false, err
	}

	allowed := make([]string, 0, len(p.AllowedRoles))
	for _, ar := range p.AllowedRoles {
		allowed = append(allowed, string(ar))
	}

	decision, err := r.engine.Evaluate(ctx, map[string]interface{}{
		"task":          string(task),
		"role":          string(role),
		"allowed_roles": allowed,
	})
	if err != nil {
		return false, err
	}
	return decision == "allow", nil
}

// RequiresConfirmation reports whether task is gated behind explicit
// human confirmation.
func (r *Registry) RequiresConfirmation(task domain.Task) (bool, error) {
	p, err := r.GetPolicy(task)
	if err != nil {
		return false, err
	}
	return p.RequiresConfirmation, nil
}

// CheckRateLimit records one invocation of task and reports whether it
// stays within the task's configured rate limits. Tasks without a rate
// limit always pass.
func (r *Registry) CheckRateLimit(task domain.Task) error {
	p, ok := r.policies[task]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTask, task)
	}
	if p.RateLimit == nil {
		return nil
	}
	if !r.limiter.allow(task, p.RateLimit) {
		return fmt.Errorf("%w for task %s", domain.ErrRateLimitExceeded, task)
	}
	return nil
}

// DefaultPolicies is the startup policy table. Tasks absent from this
// table cannot be invoked at all.
func DefaultPolicies() []domain.TaskPolicy {
	return []domain.TaskPolicy{
		{
			Task:             domain.TaskIntentClassify,
			AllowedRoles:     []domain.Role{domain.RoleViewer, domain.RoleMember, domain.RoleAdmin},
			MaxTokensPerCall: 1024,
		},
		{
			Task:             domain.TaskFieldExtract,
			AllowedRoles:     []domain.Role{domain.RoleMember, domain.RoleAdmin},
			MaxTokensPerCall: 2048,
		},
		{
			Task:             domain.TaskDocSummarize,
			AllowedRoles:     []domain.Role{domain.RoleMember, domain.RoleAdmin},
			MaxTokensPerCall: 4096,
			RateLimit:        &domain.RateLimit{PerMinute: 30, PerHour: 600},
		},
		{
			Task:         domain.TaskChatRespond,
			AllowedRoles: []domain.Role{domain.RoleMember, domain.RoleAdmin},
			RateLimit:    &domain.RateLimit{PerMinute: 60, PerHour: 1200},
		},
		{
			Task:                 domain.TaskActionPlan,
			AllowedRoles:         []domain.Role{domain.RoleAdmin},
			RequiresConfirmation: true,
			RequiresApproval:     true,
			MaxTokensPerCall:     4096,
		},
	}
}
