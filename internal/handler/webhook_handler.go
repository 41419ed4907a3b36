package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/johanandu/selfstoragejandu/internal/model"
	"github.com/johanandu/selfstoragejandu/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Reconciler is the event reconciliation contract the webhook endpoint
// delegates to.
type Reconciler interface {
	Reconcile(ctx context.Context, payload []byte, signatureHeader string) error
}

// WebhookHandler receives the payment processor's event stream.
type WebhookHandler struct {
	reconciler Reconciler
}

// NewWebhookHandler builds the handler.
func NewWebhookHandler(reconciler Reconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// HandleEvent handles POST /webhooks/stripe. Status codes follow the
// processor's redelivery contract: 200 acknowledges (including intentional
// no-ops), 400 rejects a delivery that can never succeed (bad signature,
// malformed payload), 500 asks for redelivery after a transient failure on
// the mandatory write path.
func (h *WebhookHandler) HandleEvent(c echo.Context) error {
	log := logger.FromContext(c)

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Error("Failed to read webhook body", zap.Error(err))
		return c.String(http.StatusBadRequest, "unreadable body")
	}

	signature := c.Request().Header.Get("Stripe-Signature")

	err = h.reconciler.Reconcile(c.Request().Context(), payload, signature)
	switch {
	case err == nil:
		return c.String(http.StatusOK, "OK")
	case errors.Is(err, model.ErrInvalidSignature):
		log.Warn("Webhook signature verification failed", zap.Error(err))
		return c.String(http.StatusBadRequest, "invalid signature")
	case errors.Is(err, model.ErrMalformedEvent):
		log.Warn("Malformed webhook event", zap.Error(err))
		return c.String(http.StatusBadRequest, "malformed event")
	default:
		log.Error("Webhook processing failed", zap.Error(err))
		return c.String(http.StatusInternalServerError, "processing error")
	}
}
