package adminapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ListAudit returns the most recent audit entries for an org.
// GET /admin/audit?org_id=...&limit=...
func (h *Handler) ListAudit(c echo.Context) error {
	orgID := c.QueryParam("org_id")
	if orgID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "org_id is required"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, err := h.store.ListAuditEntries(c.Request().Context(), orgID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list audit entries"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"entries": entries})
}

// ListUsage returns the most recent usage records for an org.
// GET /admin/usage?org_id=...&limit=...
func (h *Handler) ListUsage(c echo.Context) error {
	orgID := c.QueryParam("org_id")
	if orgID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "org_id is required"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	records, err := h.store.ListUsageRecords(c.Request().Context(), orgID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list usage records"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"records": records})
}
