package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modelgate/modelgate/internal/domain"
)

// resolveRequest identifies the user resolving a confirmation.
type resolveRequest struct {
	UserID string `json:"user_id"`
}

// CreateConfirmation records a pending high-impact action.
// POST /v1/confirmations
func (h *Handler) CreateConfirmation(c echo.Context) error {
	var req domain.ConfirmationRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == "" || req.ActionType == "" {
		return errorJSON(c, http.StatusBadRequest, "user_id and action_type are required")
	}

	confirmation, err := h.gate.Create(c.Request().Context(), req)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "failed to create confirmation")
	}
	return c.JSON(http.StatusCreated, confirmation)
}

// ConfirmConfirmation resolves a pending confirmation as confirmed and
// returns the gated payload.
// POST /v1/confirmations/:confirmation_id/confirm
func (h *Handler) ConfirmConfirmation(c echo.Context) error {
	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == "" {
		return errorJSON(c, http.StatusBadRequest, "user_id is required")
	}

	payload, err := h.gate.Confirm(c.Request().Context(), c.Param("confirmation_id"), req.UserID)
	if err != nil {
		return confirmationError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  domain.ConfirmationStatusConfirmed,
		"payload": payload,
	})
}

// DeclineConfirmation resolves a pending confirmation as declined.
// POST /v1/confirmations/:confirmation_id/decline
func (h *Handler) DeclineConfirmation(c echo.Context) error {
	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == "" {
		return errorJSON(c, http.StatusBadRequest, "user_id is required")
	}

	if err := h.gate.Decline(c.Request().Context(), c.Param("confirmation_id"), req.UserID); err != nil {
		return confirmationError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": domain.ConfirmationStatusDeclined,
	})
}

// confirmationError maps gate failures to distinct HTTP responses.
func confirmationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrConfirmationNotFound):
		return errorJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrWrongOwner):
		return errorJSON(c, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConfirmationExpired):
		return errorJSON(c, http.StatusGone, err.Error())
	case errors.Is(err, domain.ErrAlreadyResolved):
		return errorJSON(c, http.StatusConflict, err.Error())
	default:
		return errorJSON(c, http.StatusInternalServerError, "failed to resolve confirmation")
	}
}
