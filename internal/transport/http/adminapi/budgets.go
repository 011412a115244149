package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// setBudgetRequest is the admin budget upsert body.
type setBudgetRequest struct {
	AllocatedTokens  int64   `json:"allocated_tokens"`
	SoftLimitPercent float64 `json:"soft_limit_percent"`
	OverageAllowed   bool    `json:"overage_allowed"`
}

// GetBudget returns the org's budget status for the current period.
// GET /admin/budgets/:org_id
func (h *Handler) GetBudget(c echo.Context) error {
	status, err := h.ledger.CheckBudget(c.Request().Context(), c.Param("org_id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to check budget"})
	}
	return c.JSON(http.StatusOK, status)
}

// SetBudget upserts the org's budget for the current period.
// PUT /admin/budgets/:org_id
func (h *Handler) SetBudget(c echo.Context) error {
	var req setBudgetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	status, err := h.ledger.SetBudget(c.Request().Context(), c.Param("org_id"), req.AllocatedTokens, req.SoftLimitPercent, req.OverageAllowed)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, status)
}
