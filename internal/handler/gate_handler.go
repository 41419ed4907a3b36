package handler

import (
	"context"
	"net/http"

	"github.com/johanandu/selfstoragejandu/internal/middleware"
	"github.com/johanandu/selfstoragejandu/internal/model"
	"github.com/johanandu/selfstoragejandu/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Authorizer is the authorization engine contract the gate endpoint needs.
type Authorizer interface {
	Authorize(ctx context.Context, userID string, unitID uint) (*model.Decision, error)
}

// GateHandler serves gate-open requests for authenticated renters.
type GateHandler struct {
	access Authorizer
}

// NewGateHandler builds the handler.
func NewGateHandler(access Authorizer) *GateHandler {
	return &GateHandler{access: access}
}

// OpenGate handles POST /api/gate/open. The route sits behind the auth
// middleware, so a missing principal here means a broken route setup, not
// a user mistake. Denials reply 402 with a payment-required message; a
// store failure replies 500 because no decision could be made.
func (h *GateHandler) OpenGate(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		log.Warn("Gate open request without verified principal")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	var req struct {
		UnitID uint `json:"unit_id"`
	}
	if err := c.Bind(&req); err != nil || req.UnitID == 0 {
		log.Warn("Gate open request missing unit id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Brak ID kontenera"})
	}

	decision, err := h.access.Authorize(c.Request().Context(), userID, req.UnitID)
	if err != nil {
		log.Error("Authorization failed",
			zap.String("user_id", userID),
			zap.Uint("unit_id", req.UnitID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Błąd serwera podczas otwierania bramy"})
	}

	if !decision.Granted {
		return c.JSON(http.StatusPaymentRequired, echo.Map{
			"error":  decision.Message,
			"reason": decision.Reason,
		})
	}

	response := echo.Map{
		"success": true,
		"message": decision.Message,
	}
	if decision.FallbackHint != "" {
		response["fallback_code"] = decision.FallbackHint
	}
	return c.JSON(http.StatusOK, response)
}
