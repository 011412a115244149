// Package policy provides the task policy registry and role checks.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine evaluates role authorization through OPA. Policy is data: the
// registry feeds it the task's allowed roles and the caller's role, and
// operators can replace the rego to tighten or override decisions
// without touching call sites.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given rego content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.gateway.authz.decision"),
		rego.Module("gateway_authz.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate returns the authorization decision ("allow" or "deny") for
// the given input. Input keys: task, role, allowed_roles.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The default rule should always produce a decision; treat a
		// silent policy as a denial.
		return "deny", nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "deny", nil
}

// DefaultAuthzPolicy is the default authorization rego. Superusers pass
// everywhere; everyone else must appear in the task's allowed roles.
const DefaultAuthzPolicy = `
package gateway.authz

import rego.v1

default decision := "deny"

decision := "allow" if {
	input.role == "superuser"
}

decision := "allow" if {
	input.role in input.allowed_roles
}
`
