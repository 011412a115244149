// Package adminapi provides the internal administrative HTTP API.
package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modelgate/modelgate/internal/budget"
	"github.com/modelgate/modelgate/internal/confirm"
	"github.com/modelgate/modelgate/internal/router"
	"github.com/modelgate/modelgate/internal/store"
)

// SuperuserCheckHeader carries the upstream capability-check evidence.
// The gateway does not authenticate admins itself; it refuses to apply
// a change unless the caller layer attests the superuser check ran.
const SuperuserCheckHeader = "X-Superuser-Check"

// superuserCheckVerified is the only accepted header value.
const superuserCheckVerified = "verified"

// Handler handles administrative HTTP requests.
type Handler struct {
	router *router.Router
	ledger *budget.Ledger
	store  store.Store
	gate   *confirm.Gate
}

// NewHandler creates a new admin handler.
func NewHandler(rt *router.Router, ledger *budget.Ledger, s store.Store, gate *confirm.Gate) *Handler {
	return &Handler{
		router: rt,
		ledger: ledger,
		store:  s,
		gate:   gate,
	}
}

// RegisterRoutes registers admin routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/admin", h.requireSuperuserCheck)

	g.GET("/routing-config", h.GetRoutingConfig)
	g.PUT("/routing-config", h.SetRoutingConfig)

	g.GET("/budgets/:org_id", h.GetBudget)
	g.PUT("/budgets/:org_id", h.SetBudget)

	g.GET("/audit", h.ListAudit)
	g.GET("/usage", h.ListUsage)

	g.POST("/confirmations/sweep", h.SweepConfirmations)
}

// requireSuperuserCheck rejects requests lacking evidence that the
// upstream superuser capability check was performed.
func (h *Handler) requireSuperuserCheck(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get(SuperuserCheckHeader) != superuserCheckVerified {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "superuser check not verified",
			})
		}
		return next(c)
	}
}

// SweepConfirmations expires stale pending confirmations immediately.
// POST /admin/confirmations/sweep
func (h *Handler) SweepConfirmations(c echo.Context) error {
	n, err := h.gate.SweepExpired(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, map[string]int{"expired": n})
}
