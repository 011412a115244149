package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modelgate/modelgate/internal/domain"
	"github.com/modelgate/modelgate/internal/gateway"
)

// callerFields is the common identity part of the convenience bodies.
type callerFields struct {
	UserID  string      `json:"user_id"`
	OrgID   string      `json:"org_id"`
	Role    domain.Role `json:"role"`
	Channel string      `json:"channel,omitempty"`
}

func (f callerFields) caller() gateway.Caller {
	return gateway.Caller{UserID: f.UserID, OrgID: f.OrgID, Role: f.Role, Channel: f.Channel}
}

func (f callerFields) valid() bool {
	return f.UserID != "" && f.OrgID != ""
}

type classifyIntentRequest struct {
	callerFields
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

type extractFieldsRequest struct {
	callerFields
	Document string   `json:"document"`
	Fields   []string `json:"fields"`
}

type summarizeRequest struct {
	callerFields
	Document string `json:"document"`
}

type chatRequest struct {
	callerFields
	Messages []domain.Message `json:"messages"`
}

// ClassifyIntent classifies text into one of the given intent labels.
// POST /v1/tasks/classify-intent
func (h *Handler) ClassifyIntent(c echo.Context) error {
	var req classifyIntentRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if !req.valid() {
		return errorJSON(c, http.StatusBadRequest, "user_id and org_id are required")
	}
	if req.Text == "" || len(req.Labels) == 0 {
		return errorJSON(c, http.StatusBadRequest, "text and labels are required")
	}
	return c.JSON(http.StatusOK, h.gateway.ClassifyIntent(c.Request().Context(), req.caller(), req.Text, req.Labels))
}

// ExtractFields extracts the named fields from a document as JSON.
// POST /v1/tasks/extract-fields
func (h *Handler) ExtractFields(c echo.Context) error {
	var req extractFieldsRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if !req.valid() {
		return errorJSON(c, http.StatusBadRequest, "user_id and org_id are required")
	}
	if req.Document == "" || len(req.Fields) == 0 {
		return errorJSON(c, http.StatusBadRequest, "document and fields are required")
	}
	return c.JSON(http.StatusOK, h.gateway.ExtractFields(c.Request().Context(), req.caller(), req.Document, req.Fields))
}

// SummarizeDocument summarizes a document.
// POST /v1/tasks/summarize
func (h *Handler) SummarizeDocument(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if !req.valid() {
		return errorJSON(c, http.StatusBadRequest, "user_id and org_id are required")
	}
	if req.Document == "" {
		return errorJSON(c, http.StatusBadRequest, "document is required")
	}
	return c.JSON(http.StatusOK, h.gateway.SummarizeDocument(c.Request().Context(), req.caller(), req.Document))
}

// RespondChat answers a chat turn given prior history.
// POST /v1/tasks/chat
func (h *Handler) RespondChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if !req.valid() {
		return errorJSON(c, http.StatusBadRequest, "user_id and org_id are required")
	}
	if len(req.Messages) == 0 {
		return errorJSON(c, http.StatusBadRequest, "messages is required")
	}
	return c.JSON(http.StatusOK, h.gateway.RespondChat(c.Request().Context(), req.caller(), req.Messages))
}
