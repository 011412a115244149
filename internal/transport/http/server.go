// Package http provides the HTTP server wiring for the gateway.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modelgate/modelgate/internal/budget"
	"github.com/modelgate/modelgate/internal/confirm"
	"github.com/modelgate/modelgate/internal/gateway"
	"github.com/modelgate/modelgate/internal/router"
	"github.com/modelgate/modelgate/internal/store"
	"github.com/modelgate/modelgate/internal/telemetry"
	"github.com/modelgate/modelgate/internal/transport/http/adminapi"
	v1 "github.com/modelgate/modelgate/internal/transport/http/v1"
)

// NewExternalServer creates and configures the caller-facing HTTP
// server: task execution, confirmations, realtime metrics.
func NewExternalServer(gw *gateway.Gateway, gate *confirm.Gate, window *telemetry.Window) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Register routes
	v1.NewHandler(gw, gate, window).RegisterRoutes(e)

	return e
}

// NewAdminServer creates and configures the internal administrative
// HTTP server: routing config, budgets, audit listing and Prometheus
// metrics.
func NewAdminServer(rt *router.Router, ledger *budget.Ledger, s store.Store, gate *confirm.Gate) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Register routes
	adminapi.NewHandler(rt, ledger, s, gate).RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
