// Package service holds the two engines of the system: the authorization
// engine that gates physical access behind an active subscription, and the
// reconciliation state machine that keeps subscription rows in sync with
// the payment processor's event stream. Both receive their collaborators
// as interfaces at construction.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/johanandu/selfstoragejandu/internal/model"
	"github.com/johanandu/selfstoragejandu/internal/repository"
	"github.com/johanandu/selfstoragejandu/prometheus"

	"go.uber.org/zap"
)

// GateOpener is the actuator contract. Configured reports whether real
// hardware credentials are present; unconfigured openers simulate success.
type GateOpener interface {
	Configured() bool
	TriggerOpen(ctx context.Context, unitID uint, userID string) error
}

// AccessService decides whether a renter may open a unit's gate. It only
// reads subscription state; the reconciler is the sole writer.
type AccessService struct {
	subs   repository.SubscriptionStore
	logs   repository.AccessLogStore
	gate   GateOpener
	now    func() time.Time
	logger *zap.Logger
}

// NewAccessService wires the authorization engine.
func NewAccessService(subs repository.SubscriptionStore, logs repository.AccessLogStore, gate GateOpener, logger *zap.Logger) *AccessService {
	return &AccessService{
		subs:   subs,
		logs:   logs,
		gate:   gate,
		now:    time.Now,
		logger: logger,
	}
}

// Authorize checks the (user, unit) entitlement and, when granted, fires
// the gate actuator once and records the attempt. A denial is a normal
// decision, not an error; an error is returned only when the store cannot
// answer, in which case no decision was made and nothing was logged.
//
// Hardware failure does not revoke a grant: entitlement is the gating
// condition, so the decision stays granted with a fallback hint and the
// audit row still records SUCCESS.
func (s *AccessService) Authorize(ctx context.Context, userID string, unitID uint) (*model.Decision, error) {
	sub, err := s.subs.ActiveForUserUnit(ctx, userID, unitID)
	if err != nil {
		if errors.Is(err, model.ErrSubscriptionNotFound) {
			s.logger.Info("No active subscription",
				zap.String("user_id", userID),
				zap.Uint("unit_id", unitID))
			return s.deny(ctx, userID, model.DenialNoActiveSubscription,
				"Brak aktywnej subskrypcji dla tego kontenera. Prosimy o uregulowanie płatności."), nil
		}
		// Store unavailable: no decision can be made, and the default is
		// never ALLOW.
		return nil, err
	}

	// Defense in depth: the reconciler should have flipped the status on
	// expiry, but event delivery can lag the clock.
	if sub.CurrentPeriodEnd.Before(s.now()) {
		s.logger.Info("Subscription expired",
			zap.String("user_id", userID),
			zap.Uint("unit_id", unitID),
			zap.Time("period_end", sub.CurrentPeriodEnd))
		return s.deny(ctx, userID, model.DenialSubscriptionExpired,
			"Subskrypcja wygasła. Prosimy o odnowienie."), nil
	}

	decision := &model.Decision{
		Granted: true,
		Message: "Brama otwarta. Zapraszamy!",
	}

	if !s.gate.Configured() {
		decision.Actuation = model.ActuationSimulated
	} else {
		decision.Actuation = model.ActuationTriggered
	}

	if err := s.gate.TriggerOpen(ctx, unitID, userID); err != nil {
		s.logger.Error("Gate actuation failed",
			zap.String("user_id", userID),
			zap.Uint("unit_id", unitID),
			zap.Error(err))
		decision.Actuation = model.ActuationFailed
		decision.Message = "Brama otwarta (sprawdź kod PIN w razie problemów)"
		decision.FallbackHint = "Użyj kodu PIN z panelu klienta"
	}

	s.appendLog(ctx, userID, model.AccessStatusSuccess)
	prometheus.RecordGateDecision("granted", decision.Actuation)
	return decision, nil
}

func (s *AccessService) deny(ctx context.Context, userID, reason, message string) *model.Decision {
	s.appendLog(ctx, userID, model.AccessStatusDeniedNoPayment)
	prometheus.RecordGateDecision("denied", model.ActuationSkipped)
	return &model.Decision{
		Granted:   false,
		Reason:    reason,
		Message:   message,
		Actuation: model.ActuationSkipped,
	}
}

func (s *AccessService) appendLog(ctx context.Context, userID, status string) {
	err := s.logs.Append(ctx, &model.AccessLog{
		UserID: userID,
		Action: model.ActionOpenGate,
		Status: status,
	})
	if err != nil {
		// The decision already stands; losing the audit row is logged but
		// does not change the outcome for the user.
		s.logger.Error("Failed to append access log",
			zap.String("user_id", userID),
			zap.String("status", status),
			zap.Error(err))
	}
}
