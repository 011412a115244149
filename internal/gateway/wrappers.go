package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelgate/modelgate/internal/domain"
)

// Task-specific convenience wrappers. These are thin request builders
// over RunTask and carry no logic of their own.

// Caller identifies who is making a convenience call.
type Caller struct {
	UserID  string
	OrgID   string
	Role    domain.Role
	Channel string
}

// ClassifyIntent classifies text into one of the given labels.
func (g *Gateway) ClassifyIntent(ctx context.Context, caller Caller, text string, labels []string) *domain.GatewayResponse {
	return g.RunTask(ctx, &domain.GatewayRequest{
		Task:    domain.TaskIntentClassify,
		UserID:  caller.UserID,
		OrgID:   caller.OrgID,
		Role:    caller.Role,
		Channel: caller.Channel,
		Messages: []domain.Message{
			{Role: "user", Content: fmt.Sprintf("Classify the following text into exactly one of these intents: %s.\n\nText:\n%s", strings.Join(labels, ", "), text)},
		},
	})
}

// ExtractFields extracts the named fields from a document as JSON.
func (g *Gateway) ExtractFields(ctx context.Context, caller Caller, document string, fields []string) *domain.GatewayResponse {
	return g.RunTask(ctx, &domain.GatewayRequest{
		Task:    domain.TaskFieldExtract,
		UserID:  caller.UserID,
		OrgID:   caller.OrgID,
		Role:    caller.Role,
		Channel: caller.Channel,
		Messages: []domain.Message{
			{Role: "user", Content: fmt.Sprintf("Extract the following fields from the document and answer as a JSON object with exactly these keys: %s.\n\nDocument:\n%s", strings.Join(fields, ", "), document)},
		},
		ResponseFormat: map[string]interface{}{"type": "json_object"},
	})
}

// SummarizeDocument produces a short summary of a document.
func (g *Gateway) SummarizeDocument(ctx context.Context, caller Caller, document string) *domain.GatewayResponse {
	return g.RunTask(ctx, &domain.GatewayRequest{
		Task:    domain.TaskDocSummarize,
		UserID:  caller.UserID,
		OrgID:   caller.OrgID,
		Role:    caller.Role,
		Channel: caller.Channel,
		Messages: []domain.Message{
			{Role: "user", Content: "Summarize the following document in at most five sentences.\n\n" + document},
		},
	})
}

// RespondChat answers a chat turn given prior history.
func (g *Gateway) RespondChat(ctx context.Context, caller Caller, history []domain.Message) *domain.GatewayResponse {
	return g.RunTask(ctx, &domain.GatewayRequest{
		Task:     domain.TaskChatRespond,
		UserID:   caller.UserID,
		OrgID:    caller.OrgID,
		Role:     caller.Role,
		Channel:  caller.Channel,
		Messages: history,
	})
}
