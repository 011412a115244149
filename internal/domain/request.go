package domain

// Message is a single chat message in the provider-neutral wire shape.
type Message struct {
	Role    string `json:"role"` // system, user, assistant, tool
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// ToolDef is a tool definition passed through to the provider.
type ToolDef struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a callable function.
type ToolFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  interface{} `json:"parameters,omitempty"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction is the function part of a tool call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage holds token counts for one completed call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GatewayRequest is the call envelope accepted by the gateway. It is
// the only way application code reaches a model provider.
type GatewayRequest struct {
	Task           Task                   `json:"task"`
	Messages       []Message              `json:"messages"`
	Tools          []ToolDef              `json:"tools,omitempty"`
	ToolChoice     interface{}            `json:"tool_choice,omitempty"`
	ResponseFormat map[string]interface{} `json:"response_format,omitempty"`
	MaxTokens      *int                   `json:"max_tokens,omitempty"`
	Temperature    *float64               `json:"temperature,omitempty"`

	UserID        string `json:"user_id"`
	OrgID         string `json:"org_id"`
	Role          Role   `json:"role"`
	CorrelationID string `json:"correlation_id,omitempty"` // generated if absent
	Channel       string `json:"channel,omitempty"`

	// ProviderOverride and ModelOverride bypass route selection for
	// privileged callers. They never bypass policy or budget checks.
	ProviderOverride string `json:"provider_override,omitempty"`
	ModelOverride    string `json:"model_override,omitempty"`
}

// GatewayResponse is the normalized result of one gateway call. It is
// always returned, even on failure; expected failures set Success=false
// and Error rather than surfacing as a Go error.
type GatewayResponse struct {
	Success       bool       `json:"success"`
	Content       string     `json:"content,omitempty"`
	ToolCalls     []ToolCall `json:"tool_calls,omitempty"`
	Usage         *Usage     `json:"usage,omitempty"`
	Provider      string     `json:"provider,omitempty"`
	Model         string     `json:"model,omitempty"`
	LatencyMs     int64      `json:"latency_ms"`
	CorrelationID string     `json:"correlation_id"`
	AuditID       string     `json:"audit_id,omitempty"`
	Error         string     `json:"error,omitempty"`
}
