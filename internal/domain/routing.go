package domain

// Route is a (provider, model) pair with a selection priority.
// Lower priority is tried first.
type Route struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
	Priority int    `json:"priority" yaml:"priority"`
}

// TaskRoutingConfig is the ordered route list for one task.
type TaskRoutingConfig struct {
	Routes          []Route `json:"routes" yaml:"routes"`
	FallbackEnabled bool    `json:"fallback_enabled" yaml:"fallback_enabled"`
}

// RetryConfig controls the retry/backoff behavior for provider calls.
// Delays are in milliseconds so the config serializes cleanly.
type RetryConfig struct {
	MaxRetries        int     `json:"max_retries" yaml:"max_retries"`
	InitialDelayMs    int     `json:"initial_delay_ms" yaml:"initial_delay_ms"`
	MaxDelayMs        int     `json:"max_delay_ms" yaml:"max_delay_ms"`
	BackoffMultiplier float64 `json:"backoff_multiplier" yaml:"backoff_multiplier"`
}

// GlobalRoutingConfig is the process-wide routing state. It is replaced
// wholesale under an atomic swap; readers always observe a complete,
// internally consistent table.
type GlobalRoutingConfig struct {
	DefaultProvider string                     `json:"default_provider" yaml:"default_provider"`
	DefaultModel    string                     `json:"default_model" yaml:"default_model"`
	TaskRoutes      map[Task]TaskRoutingConfig `json:"task_routes" yaml:"task_routes"`
	FallbackChain   []string                   `json:"fallback_chain" yaml:"fallback_chain"`
	Retry           RetryConfig                `json:"retry" yaml:"retry"`
}
