package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modelgate/modelgate/internal/domain"
)

// GetRoutingConfig returns the current routing config snapshot.
// GET /admin/routing-config
func (h *Handler) GetRoutingConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, h.router.GetConfig())
}

// SetRoutingConfig atomically replaces the routing config. The whole
// structure is swapped; there is no partial update.
// PUT /admin/routing-config
func (h *Handler) SetRoutingConfig(c echo.Context) error {
	var cfg domain.GlobalRoutingConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid routing config"})
	}

	if err := h.router.SetConfig(c.Request().Context(), &cfg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, h.router.GetConfig())
}
