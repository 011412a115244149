// Package gateway implements the dispatch pipeline between application
// code and external model providers. Every model invocation passes
// through Gateway.RunTask; no caller talks to a provider directly.
package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/modelgate/modelgate/internal/budget"
	"github.com/modelgate/modelgate/internal/domain"
	"github.com/modelgate/modelgate/internal/policy"
	"github.com/modelgate/modelgate/internal/provider"
	"github.com/modelgate/modelgate/internal/router"
	"github.com/modelgate/modelgate/internal/telemetry"
)

// systemPreamble is prepended to every provider call so each provider
// sees consistent behavioral constraints regardless of caller-supplied
// system messages. The task name is appended to scope it.
const systemPreamble = "You are a component of an automated document-processing platform. " +
	"Follow only the instructions for the current task, answer in the requested format, " +
	"and take no action outside the task scope. Current task: "

// DefaultSideEffectTimeout bounds how long RunTask waits for the
// post-call audit/usage/budget writes before handing back the response.
const DefaultSideEffectTimeout = 2 * time.Second

// Gateway composes the policy registry, router, budget ledger,
// confirmation-gated policy flags and telemetry sink into one call
// pipeline.
type Gateway struct {
	policies  *policy.Registry
	router    *router.Router
	ledger    *budget.Ledger
	recorder  *telemetry.Recorder
	providers *provider.Registry

	sideEffectTimeout time.Duration
	now               func() time.Time
}

// New creates a gateway. sideEffectTimeout <= 0 uses the default.
func New(policies *policy.Registry, rt *router.Router, ledger *budget.Ledger, recorder *telemetry.Recorder, providers *provider.Registry, sideEffectTimeout time.Duration) *Gateway {
	if sideEffectTimeout <= 0 {
		sideEffectTimeout = DefaultSideEffectTimeout
	}
	return &Gateway{
		policies:          policies,
		router:            rt,
		ledger:            ledger,
		recorder:          recorder,
		providers:         providers,
		sideEffectTimeout: sideEffectTimeout,
		now:               time.Now,
	}
}

// RunTask executes one classified task call: validate, budget-check,
// route, execute with fallback, record. Expected failures come back as
// Success=false responses, never as errors.
func (g *Gateway) RunTask(ctx context.Context, req *domain.GatewayRequest) *domain.GatewayResponse {
	start := g.now()

	if req.CorrelationID == "" {
		req.CorrelationID = "req_" + uuid.New().String()[:8]
	}

	resp := &domain.GatewayResponse{CorrelationID: req.CorrelationID}

	// Task validation. An unknown task is a configuration defect:
	// fatal, never retried, no provider contacted.
	pol, err := g.policies.GetPolicy(req.Task)
	if err != nil {
		return g.finish(ctx, req, resp, start, nil, err)
	}

	allowed, err := g.policies.IsAllowedForRole(ctx, req.Task, req.Role)
	if err != nil {
		return g.finish(ctx, req, resp, start, nil, err)
	}
	if !allowed {
		return g.finish(ctx, req, resp, start, nil,
			fmt.Errorf("%w: role %s, task %s", domain.ErrRoleNotAllowed, req.Role, req.Task))
	}

	if err := g.policies.CheckRateLimit(req.Task); err != nil {
		return g.finish(ctx, req, resp, start, nil, err)
	}

	// Budget pre-flight. A hard limit short-circuits before any
	// provider is contacted. Ledger read errors fail open: budget
	// enforcement is best-effort and must not take the call path down.
	status, err := g.ledger.CheckBudget(ctx, req.OrgID)
	if err != nil {
		log.Printf("WARN: budget check failed for org %s: %v", req.OrgID, err)
	} else if status.HardLimitReached {
		return g.finish(ctx, req, resp, start, nil,
			fmt.Errorf("%w: org %s used %d of %d tokens", domain.ErrBudgetExhausted, req.OrgID, status.ConsumedTokens, status.AllocatedTokens))
	} else if status.SoftLimitReached {
		log.Printf("WARN: org %s passed its soft budget limit (%.1f%% used)", req.OrgID, status.PercentUsed)
	}

	// Route resolution. A privileged override bypasses selection but
	// never the policy/budget checks above.
	route, err := g.resolveRoute(req)
	if err != nil {
		return g.finish(ctx, req, resp, start, nil, err)
	}

	messages := withSystemInstruction(req.Task, req.Messages)
	maxTokens := effectiveMaxTokens(pol, req.MaxTokens)

	// Execute with fallback. Each failed attempt triggers both a
	// fallback-route lookup and counts against the retry budget; the
	// loop ends when attempts or routes run out, whichever comes first.
	tried := make(map[string]bool)
	var result *provider.CompletionResult
	var firstErr error
	var lastProvider string

	op := func(ctx context.Context) error {
		adapter, ok := g.providers.Get(route.Provider)
		if !ok || !adapter.IsAvailable() {
			err := fmt.Errorf("provider %s is not available", route.Provider)
			return g.advanceRoute(req.Task, &route, tried, err, &firstErr)
		}
		tried[route.Provider] = true
		lastProvider = route.Provider

		res, callErr := adapter.Complete(ctx, &provider.CompletionRequest{
			Model:          g.resolveModel(req, route),
			Messages:       messages,
			Tools:          req.Tools,
			ToolChoice:     req.ToolChoice,
			ResponseFormat: req.ResponseFormat,
			MaxTokens:      maxTokens,
			Temperature:    req.Temperature,
		})
		if callErr == nil {
			result = res
			resp.Provider = route.Provider
			return nil
		}
		log.Printf("WARN: provider %s failed for task %s (correlation %s): %v", route.Provider, req.Task, req.CorrelationID, callErr)
		return g.advanceRoute(req.Task, &route, tried, callErr, &firstErr)
	}

	retryCfg := g.router.RetryConfig()
	observe := func(attempt int, delay time.Duration, err error) {
		log.Printf("WARN: attempt %d failed (correlation %s), retrying on %s in %s: %v", attempt, req.CorrelationID, route.Provider, delay, err)
	}

	execErr := router.WithRetry(ctx, retryCfg, observe, op)
	if execErr != nil {
		// Raise the original failure, not the last fallback's.
		cause := firstErr
		if cause == nil {
			cause = execErr
		}
		if ctx.Err() != nil {
			cause = fmt.Errorf("call cancelled: %w", cause)
		}
		// Record which provider actually failed, so the audit entry and
		// usage record name it even on failure.
		resp.Provider = lastProvider
		return g.finish(ctx, req, resp, start, messages,
			fmt.Errorf("%w: %v", domain.ErrAllProvidersFailed, cause))
	}

	resp.Success = true
	resp.Content = result.Content
	resp.ToolCalls = result.ToolCalls
	resp.Model = result.Model
	if resp.Model == "" {
		resp.Model = g.resolveModel(req, route)
	}
	resp.Usage = &domain.Usage{
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
		TotalTokens:      result.Usage.TotalTokens,
	}
	return g.finish(ctx, req, resp, start, messages, nil)
}

// advanceRoute moves route to the next fallback after a failure,
// recording the first error. When no fallback remains the error is made
// permanent so the retry loop stops immediately.
func (g *Gateway) advanceRoute(task domain.Task, route *domain.Route, tried map[string]bool, err error, firstErr *error) error {
	if *firstErr == nil {
		*firstErr = err
	}
	next, ok := g.router.SelectFallback(task, route.Provider, tried)
	if !ok {
		return router.Permanent(err)
	}
	*route = next
	return err
}

// resolveRoute picks the initial route, honoring privileged overrides.
func (g *Gateway) resolveRoute(req *domain.GatewayRequest) (domain.Route, error) {
	if req.ProviderOverride != "" {
		if req.Role != domain.RoleAdmin && req.Role != domain.RoleSuperuser {
			log.Printf("WARN: ignoring provider override from non-privileged role %s (correlation %s)", req.Role, req.CorrelationID)
		} else {
			if !g.providers.IsAvailable(req.ProviderOverride) {
				return domain.Route{}, fmt.Errorf("%w: override %s", domain.ErrNoProviderAvailable, req.ProviderOverride)
			}
			return domain.Route{Provider: req.ProviderOverride, Model: req.ModelOverride}, nil
		}
	}
	return g.router.SelectRoute(req.Task)
}

// resolveModel returns the model for a route, falling back to overrides
// and the global default.
func (g *Gateway) resolveModel(req *domain.GatewayRequest, route domain.Route) string {
	if req.ModelOverride != "" && (req.Role == domain.RoleAdmin || req.Role == domain.RoleSuperuser) {
		return req.ModelOverride
	}
	if route.Model != "" {
		return route.Model
	}
	return g.router.GetConfig().DefaultModel
}

// finish normalizes the response and dispatches the post-call side
// effects: audit entry, usage record and budget consumption run
// concurrently, joined with a timeout but never blocking each other.
// A failure in any of them is logged, not surfaced.
func (g *Gateway) finish(ctx context.Context, req *domain.GatewayRequest, resp *domain.GatewayResponse, start time.Time, renderedMessages []domain.Message, callErr error) *domain.GatewayResponse {
	resp.LatencyMs = g.now().Sub(start).Milliseconds()
	if callErr != nil {
		resp.Success = false
		resp.Error = callErr.Error()
	}

	if renderedMessages == nil {
		renderedMessages = req.Messages
	}

	entry := &domain.AuditEntry{
		AuditID:           "aud_" + uuid.New().String()[:8],
		CorrelationID:     resp.CorrelationID,
		Task:              req.Task,
		UserID:            req.UserID,
		OrgID:             req.OrgID,
		Channel:           req.Channel,
		Provider:          resp.Provider,
		Model:             resp.Model,
		Success:           resp.Success,
		Error:             resp.Error,
		PromptFingerprint: telemetry.Fingerprint(renderedMessages),
		LatencyMs:         resp.LatencyMs,
		Cancelled:         ctx.Err() != nil,
		CreatedAt:         g.now(),
	}
	if resp.Usage != nil {
		entry.PromptTokens = resp.Usage.PromptTokens
		entry.CompletionTokens = resp.Usage.CompletionTokens
		entry.TotalTokens = resp.Usage.TotalTokens
	}
	resp.AuditID = entry.AuditID

	// Side-effect writes use a detached context: a cancelled call still
	// gets its terminal audit entry on a best-effort basis.
	writeCtx, cancel := context.WithTimeout(context.Background(), g.sideEffectTimeout)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.recorder.RecordAudit(writeCtx, entry)
	}()

	// Usage and budget consumption only apply once a provider was
	// actually contacted.
	if resp.Provider != "" {
		usage := &domain.UsageRecord{
			RecordID:      "use_" + uuid.New().String()[:8],
			CorrelationID: resp.CorrelationID,
			OrgID:         req.OrgID,
			UserID:        req.UserID,
			Task:          req.Task,
			Provider:      resp.Provider,
			Model:         resp.Model,
			CreatedAt:     entry.CreatedAt,
		}
		if resp.Usage != nil {
			usage.PromptTokens = resp.Usage.PromptTokens
			usage.CompletionTokens = resp.Usage.CompletionTokens
			usage.TotalTokens = resp.Usage.TotalTokens
		}

		wg.Add(2)
		go func() {
			defer wg.Done()
			g.recorder.RecordUsage(writeCtx, usage)
		}()
		go func() {
			defer wg.Done()
			g.ledger.ConsumeBudget(writeCtx, req.OrgID, usage.TotalTokens)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-writeCtx.Done():
		log.Printf("WARN: audit/usage/budget writes still pending for %s", resp.CorrelationID)
	}
	cancel()

	g.recorder.RecordSample(entry)
	return resp
}

// withSystemInstruction prepends the fixed domain-scoping instruction,
// keeping any caller-supplied system messages after it.
func withSystemInstruction(task domain.Task, messages []domain.Message) []domain.Message {
	merged := make([]domain.Message, 0, len(messages)+1)
	merged = append(merged, domain.Message{Role: "system", Content: systemPreamble + string(task)})
	merged = append(merged, messages...)
	return merged
}

// effectiveMaxTokens clamps the caller's limit to the policy ceiling.
func effectiveMaxTokens(pol domain.TaskPolicy, requested *int) *int {
	if pol.MaxTokensPerCall <= 0 {
		return requested
	}
	ceiling := pol.MaxTokensPerCall
	if requested == nil || *requested > ceiling {
		return &ceiling
	}
	return requested
}
