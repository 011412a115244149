package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modelgate/modelgate/internal/domain"
)

// RunTask executes one gateway call. Expected failures come back as a
// 200 with success=false so callers branch on the body, not on HTTP
// status.
// POST /v1/tasks/run
func (h *Handler) RunTask(c echo.Context) error {
	var req domain.GatewayRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if req.Task == "" {
		return errorJSON(c, http.StatusBadRequest, "task is required")
	}
	if len(req.Messages) == 0 {
		return errorJSON(c, http.StatusBadRequest, "messages is required")
	}
	if req.UserID == "" || req.OrgID == "" {
		return errorJSON(c, http.StatusBadRequest, "user_id and org_id are required")
	}

	resp := h.gateway.RunTask(c.Request().Context(), &req)
	return c.JSON(http.StatusOK, resp)
}
