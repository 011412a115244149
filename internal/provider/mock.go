package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/modelgate/modelgate/internal/domain"
)

// MockAdapter is a local stand-in for a provider, used in mock mode and
// in tests.
type MockAdapter struct {
	name string
}

// Ensure MockAdapter implements the Adapter interface.
var _ Adapter = (*MockAdapter)(nil)

// NewMockAdapter creates a mock adapter that answers as the given
// provider name.
func NewMockAdapter(name string) *MockAdapter {
	return &MockAdapter{name: name}
}

// Name returns the provider identifier.
func (m *MockAdapter) Name() string {
	return m.name
}

// IsAvailable always reports true.
func (m *MockAdapter) IsAvailable() bool {
	return true
}

// Complete returns a canned response derived from the request.
func (m *MockAdapter) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	result := &CompletionResult{
		FinishReason: "stop",
		Model:        req.Model,
	}

	if len(req.Tools) > 0 {
		result.FinishReason = "tool_calls"
		result.ToolCalls = []domain.ToolCall{
			{
				ID:   "call_" + uuid.New().String()[:8],
				Type: "function",
				Function: domain.ToolCallFunction{
					Name:      req.Tools[0].Function.Name,
					Arguments: "{}",
				},
			},
		}
	} else {
		result.Content = m.generateContent(req)
	}

	prompt := m.estimateTokens(req)
	completion := len(result.Content) / 4
	result.Usage = domain.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
	return result, nil
}

// AvailableModels returns a fixed model list.
func (m *MockAdapter) AvailableModels(ctx context.Context) ([]string, error) {
	return []string{"mock-large", "mock-small"}, nil
}

// generateContent derives a mock answer from the last user message.
func (m *MockAdapter) generateContent(req *CompletionRequest) string {
	var lastUserMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}

	if lastUserMessage == "" {
		return fmt.Sprintf("[MOCK:%s] This is a mock completion.", m.name)
	}
	return fmt.Sprintf("[MOCK:%s] Received your message: %q. This is a mock completion.", m.name, truncate(lastUserMessage, 100))
}

// estimateTokens provides a rough token count estimate.
func (m *MockAdapter) estimateTokens(req *CompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
