// Package v1 provides the external HTTP API for the gateway.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modelgate/modelgate/internal/confirm"
	"github.com/modelgate/modelgate/internal/gateway"
	"github.com/modelgate/modelgate/internal/telemetry"
)

// Handler handles HTTP requests.
type Handler struct {
	gateway *gateway.Gateway
	gate    *confirm.Gate
	window  *telemetry.Window
}

// NewHandler creates a new handler.
func NewHandler(gw *gateway.Gateway, gate *confirm.Gate, window *telemetry.Window) *Handler {
	return &Handler{
		gateway: gw,
		gate:    gate,
		window:  window,
	}
}

// RegisterRoutes registers external routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Task API: the single entry point for model calls
	e.POST("/v1/tasks/run", h.RunTask)

	// Task-specific conveniences over the same pipeline
	e.POST("/v1/tasks/classify-intent", h.ClassifyIntent)
	e.POST("/v1/tasks/extract-fields", h.ExtractFields)
	e.POST("/v1/tasks/summarize", h.SummarizeDocument)
	e.POST("/v1/tasks/chat", h.RespondChat)

	// Confirmation API for high-impact actions
	e.POST("/v1/confirmations", h.CreateConfirmation)
	e.POST("/v1/confirmations/:confirmation_id/confirm", h.ConfirmConfirmation)
	e.POST("/v1/confirmations/:confirmation_id/decline", h.DeclineConfirmation)

	// Liveness metrics from the rolling window
	e.GET("/v1/metrics/realtime", h.RealtimeMetrics)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// RealtimeMetrics returns the rolling-window liveness snapshot.
// GET /v1/metrics/realtime
func (h *Handler) RealtimeMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.window.Snapshot())
}

// errorJSON writes a structured error response.
func errorJSON(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]string{"error": message})
}
