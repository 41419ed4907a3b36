package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/johanandu/selfstoragejandu/internal/invoice"
	"github.com/johanandu/selfstoragejandu/internal/model"
	"github.com/johanandu/selfstoragejandu/internal/payment"
	"github.com/johanandu/selfstoragejandu/internal/repository"
	"github.com/johanandu/selfstoragejandu/pkg/config"
	"github.com/johanandu/selfstoragejandu/prometheus"

	"go.uber.org/zap"
)

// PaymentProvider is the processor read contract the reconciler needs:
// the authoritative subscription record (period end) and the customer
// record used as the identity source for webhook-created profiles.
type PaymentProvider interface {
	Subscription(ctx context.Context, id string) (*payment.Subscription, error)
	Customer(ctx context.Context, id string) (*payment.Customer, error)
}

// InvoiceIssuer issues a paid invoice. Failures are logged and swallowed
// by the reconciler; invoicing never blocks or rolls back an activation.
type InvoiceIssuer interface {
	CreatePaidInvoice(ctx context.Context, data invoice.Data) error
}

// ReconcileService applies payment lifecycle events to the subscription
// store. Delivery is at-least-once and unordered; every handler is
// idempotent, and for activation the unique insert of the subscription row
// is the commit point. Effects written before it (unit occupancy, profile)
// are safe to repeat on redelivery.
type ReconcileService struct {
	subs      repository.SubscriptionStore
	units     repository.UnitStore
	profiles  repository.ProfileStore
	provider  PaymentProvider
	invoicer  InvoiceIssuer
	secret    string
	tolerance time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewReconcileService wires the reconciliation state machine.
func NewReconcileService(
	subs repository.SubscriptionStore,
	units repository.UnitStore,
	profiles repository.ProfileStore,
	provider PaymentProvider,
	invoicer InvoiceIssuer,
	cfg *config.StripeConfig,
	logger *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		subs:      subs,
		units:     units,
		profiles:  profiles,
		provider:  provider,
		invoicer:  invoicer,
		secret:    cfg.WebhookSecret,
		tolerance: cfg.WebhookTolerance,
		now:       time.Now,
		logger:    logger,
	}
}

// Reconcile authenticates and applies one webhook delivery.
//
// Error classes decide the HTTP reply upstream: model.ErrInvalidSignature
// and model.ErrMalformedEvent mean the delivery itself is bad (400, do not
// redeliver the same bytes), anything else is a transient failure on the
// mandatory write path (500, please redeliver). A nil return acknowledges
// the event, including intentional no-ops and duplicates.
func (s *ReconcileService) Reconcile(ctx context.Context, payload []byte, signatureHeader string) error {
	if err := payment.VerifySignature(payload, signatureHeader, s.secret, s.tolerance, s.now()); err != nil {
		prometheus.RecordWebhookEvent("unverified", "rejected")
		return err
	}

	event, err := payment.ParseEvent(payload)
	if err != nil {
		prometheus.RecordWebhookEvent("unparseable", "rejected")
		return err
	}

	log := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	var outcome string
	switch event.Kind() {
	case payment.KindCheckoutCompleted:
		err = s.handleCheckoutCompleted(ctx, event, log)
		outcome = outcomeLabel(err)
	case payment.KindInvoicePaymentSucceeded:
		err = s.handleRenewal(ctx, event, log)
		outcome = outcomeLabel(err)
	case payment.KindInvoicePaymentFailed:
		// Acknowledged without state change; dunning is not modeled here.
		log.Info("Invoice payment failed, no action taken")
		outcome = "ignored"
	case payment.KindSubscriptionCanceled:
		err = s.handleCanceled(ctx, event, log)
		outcome = outcomeLabel(err)
	case payment.KindUnknown:
		// Unknown types are acknowledged so new upstream event types do
		// not turn into endless redeliveries.
		log.Info("Unhandled event type, acknowledged")
		outcome = "ignored"
	}

	prometheus.RecordWebhookEvent(event.Type, outcome)
	return err
}

func outcomeLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "processed"
}

// handleCheckoutCompleted activates a subscription: marks the unit
// occupied, resolves or creates the renter profile, inserts the
// subscription row (the commit point) and best-effort issues an invoice.
func (s *ReconcileService) handleCheckoutCompleted(ctx context.Context, event *payment.Event, log *zap.Logger) error {
	var session payment.CheckoutSession
	if err := event.DecodeObject(&session); err != nil {
		return err
	}

	rawUnitID := session.Metadata["unitId"]
	userID := session.Metadata["userId"]

	if session.Subscription == "" || rawUnitID == "" {
		return fmt.Errorf("%w: checkout session missing subscription or unitId metadata", model.ErrMalformedEvent)
	}

	parsedUnitID, err := strconv.ParseUint(rawUnitID, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: bad unitId %q", model.ErrMalformedEvent, rawUnitID)
	}
	unitID := uint(parsedUnitID)

	// Fast idempotency check. The unique index on the insert below is the
	// authoritative guard; this read just short-circuits the common
	// redelivery case before any provider calls.
	if _, err := s.subs.ByStripeID(ctx, session.Subscription); err == nil {
		log.Info("Subscription already exists, skipping duplicate delivery",
			zap.String("stripe_subscription_id", session.Subscription))
		return nil
	} else if !errors.Is(err, model.ErrSubscriptionNotFound) {
		return err
	}

	providerSub, err := s.provider.Subscription(ctx, session.Subscription)
	if err != nil {
		return err
	}

	if err := s.units.SetStatus(ctx, unitID, model.UnitStatusOccupied); err != nil {
		return err
	}

	profileID, err := s.resolveProfile(ctx, userID, session.Customer, log)
	if err != nil {
		return err
	}

	sub := &model.Subscription{
		UserID:               profileID,
		UnitID:               unitID,
		StripeSubscriptionID: session.Subscription,
		Status:               model.SubscriptionStatusActive,
		CurrentPeriodEnd:     providerSub.CurrentPeriodEnd,
	}
	if err := s.subs.Insert(ctx, sub); err != nil {
		if errors.Is(err, model.ErrDuplicateSubscription) {
			// A concurrent delivery won the insert race. Same outcome as
			// the pre-check above: acknowledge and stop.
			log.Info("Concurrent duplicate delivery detected on insert",
				zap.String("stripe_subscription_id", session.Subscription))
			return nil
		}
		return err
	}

	log.Info("Subscription activated",
		zap.String("user_id", profileID),
		zap.Uint("unit_id", unitID),
		zap.String("stripe_subscription_id", session.Subscription),
		zap.Time("current_period_end", providerSub.CurrentPeriodEnd))

	s.issueInvoice(ctx, unitID, session.Customer, log)
	return nil
}

// resolveProfile links an existing profile to the processor customer, or
// creates one from the customer record when the checkout came from a
// renter with no account. This is the only path that creates a profile
// from payment data alone.
func (s *ReconcileService) resolveProfile(ctx context.Context, userID, customerID string, log *zap.Logger) (string, error) {
	if userID != "" && userID != "undefined" {
		if err := s.profiles.AttachStripeCustomer(ctx, userID, customerID); err != nil {
			return "", err
		}
		return userID, nil
	}

	customer, err := s.provider.Customer(ctx, customerID)
	if err != nil {
		return "", err
	}
	if customer.Deleted {
		// A deleted customer can never be resolved; redelivery would not
		// help, so this counts as a bad event rather than a transient
		// failure.
		return "", fmt.Errorf("%w: customer %s was deleted", model.ErrMalformedEvent, customerID)
	}

	profile := &model.Profile{
		ID:               customer.ID,
		Email:            customer.Email,
		FullName:         customer.Name,
		PhoneNumber:      customer.Phone,
		StripeCustomerID: customerID,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return "", err
	}

	log.Info("Profile created from customer record",
		zap.String("user_id", customer.ID),
		zap.String("email", customer.Email))
	return customer.ID, nil
}

// issueInvoice requests a paid VAT invoice. Strictly best-effort: every
// failure is logged and swallowed, invoices are re-issued out of band.
func (s *ReconcileService) issueInvoice(ctx context.Context, unitID uint, customerID string, log *zap.Logger) {
	unit, err := s.units.ByID(ctx, unitID)
	if err != nil {
		log.Error("Skipping invoice, unit lookup failed", zap.Uint("unit_id", unitID), zap.Error(err))
		prometheus.RecordInvoiceFailure()
		return
	}

	customer, err := s.provider.Customer(ctx, customerID)
	if err != nil {
		log.Error("Skipping invoice, customer lookup failed", zap.String("customer_id", customerID), zap.Error(err))
		prometheus.RecordInvoiceFailure()
		return
	}
	if customer.Email == "" {
		log.Warn("Skipping invoice, customer has no email", zap.String("customer_id", customerID))
		return
	}

	clientName := customer.Name
	if clientName == "" {
		clientName = customer.Email
	}

	err = s.invoicer.CreatePaidInvoice(ctx, invoice.Data{
		ClientName:  clientName,
		ClientEmail: customer.Email,
		NIP:         "",
		UnitName:    unit.Name,
		Price:       float64(unit.PriceMonthly) / 100,
	})
	if err != nil {
		log.Error("Invoice creation failed", zap.String("customer_id", customerID), zap.Error(err))
		prometheus.RecordInvoiceFailure()
	}
}

// handleRenewal advances the period end of a tracked subscription. The
// value is re-read from the processor's subscription record, so replayed
// or reordered deliveries all converge on the processor's current state.
func (s *ReconcileService) handleRenewal(ctx context.Context, event *payment.Event, log *zap.Logger) error {
	var inv payment.Invoice
	if err := event.DecodeObject(&inv); err != nil {
		return err
	}
	if inv.Subscription == "" {
		// One-off invoices carry no subscription; nothing to do.
		return nil
	}

	if _, err := s.subs.ByStripeID(ctx, inv.Subscription); err != nil {
		if errors.Is(err, model.ErrSubscriptionNotFound) {
			log.Info("Renewal for untracked subscription, ignored",
				zap.String("stripe_subscription_id", inv.Subscription))
			return nil
		}
		return err
	}

	providerSub, err := s.provider.Subscription(ctx, inv.Subscription)
	if err != nil {
		return err
	}

	err = s.subs.UpdateByStripeID(ctx, inv.Subscription, model.SubscriptionStatusActive, providerSub.CurrentPeriodEnd)
	if err != nil {
		return err
	}

	log.Info("Subscription renewed",
		zap.String("stripe_subscription_id", inv.Subscription),
		zap.Time("current_period_end", providerSub.CurrentPeriodEnd))
	return nil
}

// handleCanceled marks a tracked subscription canceled. Canceled is
// terminal: a later reactivation arrives with a fresh subscription id and
// becomes a new row.
func (s *ReconcileService) handleCanceled(ctx context.Context, event *payment.Event, log *zap.Logger) error {
	var obj payment.SubscriptionObject
	if err := event.DecodeObject(&obj); err != nil {
		return err
	}
	if obj.ID == "" {
		return fmt.Errorf("%w: subscription object missing id", model.ErrMalformedEvent)
	}

	sub, err := s.subs.ByStripeID(ctx, obj.ID)
	if err != nil {
		if errors.Is(err, model.ErrSubscriptionNotFound) {
			log.Info("Cancellation for untracked subscription, ignored",
				zap.String("stripe_subscription_id", obj.ID))
			return nil
		}
		return err
	}

	err = s.subs.UpdateByStripeID(ctx, obj.ID, model.SubscriptionStatusCanceled, sub.CurrentPeriodEnd)
	if err != nil {
		return err
	}

	log.Info("Subscription canceled", zap.String("stripe_subscription_id", obj.ID))
	return nil
}
