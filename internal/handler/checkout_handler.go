package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/johanandu/selfstoragejandu/internal/model"
	"github.com/johanandu/selfstoragejandu/internal/payment"
	"github.com/johanandu/selfstoragejandu/internal/repository"
	"github.com/johanandu/selfstoragejandu/pkg/jwtutil"
	"github.com/johanandu/selfstoragejandu/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CheckoutCreator creates hosted checkout sessions at the payment
// processor.
type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, params payment.CheckoutParams) (string, error)
}

// CheckoutHandler starts the subscription purchase flow for a unit.
type CheckoutHandler struct {
	units    repository.UnitStore
	payments CheckoutCreator
}

// NewCheckoutHandler builds the handler.
func NewCheckoutHandler(units repository.UnitStore, payments CheckoutCreator) *CheckoutHandler {
	return &CheckoutHandler{units: units, payments: payments}
}

// CreateCheckout handles POST /api/checkout. The route is public: renters
// may start a checkout before having an account, in which case the webhook
// reconciler later creates their profile from the processor's customer
// record. A bearer token, when present and valid, rides along as the
// userId metadata so the reconciler can link the subscription to the
// existing profile.
func (h *CheckoutHandler) CreateCheckout(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		UnitID uint `json:"unit_id"`
	}
	if err := c.Bind(&req); err != nil || req.UnitID == 0 {
		log.Warn("Checkout request missing unit id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Brak wymaganych danych"})
	}

	unit, err := h.units.ByID(c.Request().Context(), req.UnitID)
	if err != nil {
		if errors.Is(err, model.ErrUnitNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Nie znaleziono kontenera"})
		}
		log.Error("Unit lookup failed", zap.Uint("unit_id", req.UnitID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Błąd serwera podczas tworzenia sesji płatności"})
	}

	url, err := h.payments.CreateCheckoutSession(c.Request().Context(), payment.CheckoutParams{
		UnitID:       unit.ID,
		UnitName:     unit.Name,
		PriceMonthly: unit.PriceMonthly,
		UserID:       optionalUserID(c),
	})
	if err != nil {
		log.Error("Checkout session creation failed", zap.Uint("unit_id", req.UnitID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Błąd serwera podczas tworzenia sesji płatności"})
	}

	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

// optionalUserID extracts the principal from a bearer token if one was
// sent. Invalid or absent tokens yield an empty id rather than an error;
// identity is optional on this route.
func optionalUserID(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	claims, err := jwtutil.ValidateToken(parts[1])
	if err != nil {
		return ""
	}
	return claims.UserID
}
