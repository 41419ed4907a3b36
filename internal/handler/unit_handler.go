package handler

import (
	"net/http"

	"github.com/johanandu/selfstoragejandu/internal/repository"
	"github.com/johanandu/selfstoragejandu/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UnitHandler serves read-only unit listings for display.
type UnitHandler struct {
	units repository.UnitStore
}

// NewUnitHandler builds the handler.
func NewUnitHandler(units repository.UnitStore) *UnitHandler {
	return &UnitHandler{units: units}
}

// ListUnits handles GET /api/units.
func (h *UnitHandler) ListUnits(c echo.Context) error {
	units, err := h.units.List(c.Request().Context())
	if err != nil {
		logger.FromContext(c).Error("Unit listing failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list units"})
	}
	return c.JSON(http.StatusOK, echo.Map{"units": units})
}
