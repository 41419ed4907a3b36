package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/johanandu/selfstoragejandu/internal/model"

	"go.uber.org/zap"
)

type fakeSubscriptionStore struct {
	activeForUserUnitFn func(ctx context.Context, userID string, unitID uint) (*model.Subscription, error)
	byStripeIDFn        func(ctx context.Context, id string) (*model.Subscription, error)
	insertFn            func(ctx context.Context, sub *model.Subscription) error
	updateFn            func(ctx context.Context, id, status string, periodEnd time.Time) error
}

func (f *fakeSubscriptionStore) ActiveForUserUnit(ctx context.Context, userID string, unitID uint) (*model.Subscription, error) {
	return f.activeForUserUnitFn(ctx, userID, unitID)
}
func (f *fakeSubscriptionStore) ByStripeID(ctx context.Context, id string) (*model.Subscription, error) {
	if f.byStripeIDFn != nil {
		return f.byStripeIDFn(ctx, id)
	}
	return nil, model.ErrSubscriptionNotFound
}
func (f *fakeSubscriptionStore) Insert(ctx context.Context, sub *model.Subscription) error {
	if f.insertFn != nil {
		return f.insertFn(ctx, sub)
	}
	return nil
}
func (f *fakeSubscriptionStore) UpdateByStripeID(ctx context.Context, id, status string, periodEnd time.Time) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, status, periodEnd)
	}
	return nil
}

type fakeAccessLogStore struct {
	entries []*model.AccessLog
	err     error
}

func (f *fakeAccessLogStore) Append(ctx context.Context, entry *model.AccessLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeGate struct {
	configured bool
	err        error
	calls      int
}

func (f *fakeGate) Configured() bool {
	return f.configured
}
func (f *fakeGate) TriggerOpen(ctx context.Context, unitID uint, userID string) error {
	f.calls++
	return f.err
}

func newTestAccessService(subs *fakeSubscriptionStore, logs *fakeAccessLogStore, g *fakeGate, now time.Time) *AccessService {
	s := NewAccessService(subs, logs, g, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func activeRow(periodEnd time.Time) *model.Subscription {
	return &model.Subscription{
		ID:                   1,
		UserID:               "user-42",
		UnitID:               7,
		StripeSubscriptionID: "sub_123",
		Status:               model.SubscriptionStatusActive,
		CurrentPeriodEnd:     periodEnd,
	}
}

func TestAuthorize_NoActiveSubscription_Denies(t *testing.T) {
	subs := &fakeSubscriptionStore{
		activeForUserUnitFn: func(ctx context.Context, userID string, unitID uint) (*model.Subscription, error) {
			return nil, model.ErrSubscriptionNotFound
		},
	}
	logs := &fakeAccessLogStore{}
	g := &fakeGate{configured: true}
	s := newTestAccessService(subs, logs, g, time.Now())

	decision, err := s.Authorize(context.Background(), "user-42", 7)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if decision.Granted {
		t.Error("decision.Granted = true, want false")
	}
	if decision.Reason != model.DenialNoActiveSubscription {
		t.Errorf("decision.Reason = %q, want %q", decision.Reason, model.DenialNoActiveSubscription)
	}
	if g.calls != 0 {
		t.Errorf("gate calls = %d, want 0", g.calls)
	}
	if len(logs.entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(logs.entries))
	}
	if logs.entries[0].Status != model.AccessStatusDeniedNoPayment {
		t.Errorf("log status = %q, want %q", logs.entries[0].Status, model.AccessStatusDeniedNoPayment)
	}
}

func TestAuthorize_ExpiredSubscription_Denies(t *testing.T) {
	now := time.Now()
	subs := &fakeSubscriptionStore{
		activeForUserUnitFn: func(ctx context.Context, userID string, unitID uint) (*model.Subscription, error) {
			return activeRow(now.Add(-time.Hour)), nil
		},
	}
	logs := &fakeAccessLogStore{}
	g := &fakeGate{configured: true}
	s := newTestAccessService(subs, logs, g, now)

	decision, err := s.Authorize(context.Background(), "user-42", 7)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if decision.Granted {
		t.Error("decision.Granted = true, want false")
	}
	if decision.Reason != model.DenialSubscriptionExpired {
		t.Errorf("decision.Reason = %q, want %q", decision.Reason, model.DenialSubscriptionExpired)
	}
	if g.calls != 0 {
		t.Errorf("gate calls = %d, want 0", g.calls)
	}
	if len(logs.entries) != 1 || logs.entries[0].Status != model.AccessStatusDeniedNoPayment {
		t.Errorf("expected exactly one DENIED_NO_PAYMENT entry, got %+v", logs.entries)
	}
}

func TestAuthorize_ValidSubscription_Grants(t *testing.T) {
	now := time.Now()
	subs := &fakeSubscriptionStore{
		activeForUserUnitFn: func(ctx context.Context, userID string, unitID uint) (*model.Subscription, error) {
			return activeRow(now.Add(30 * 24 * time.Hour)), nil
		},
	}
	logs := &fakeAccessLogStore{}
	g := &fakeGate{configured: true}
	s := newTestAccessService(subs, logs, g, now)

	decision, err := s.Authorize(context.Background(), "user-42", 7)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if !decision.Granted {
		t.Error("decision.Granted = false, want true")
	}
	if decision.Actuation != model.ActuationTriggered {
		t.Errorf("decision.Actuation = %q, want %q", decision.Actuation, model.ActuationTriggered)
	}
	if decision.FallbackHint != "" {
		t.Errorf("decision.FallbackHint = %q, want empty", decision.FallbackHint)
	}
	if g.calls != 1 {
		t.Errorf("gate calls = %d, want 1", g.calls)
	}
	if len(logs.entries) != 1 || logs.entries[0].Status != model.AccessStatusSuccess {
		t.Errorf("expected exactly one SUCCESS entry, got %+v", logs.entries)
	}
}

func TestAuthorize_GateFailure_StillGrantsWithFallback(t *testing.T) {
	now := time.Now()
	subs := &fakeSubscriptionStore{
		activeForUserUnitFn: func(ctx context.Context, userID string, unitID uint) (*model.Subscription, error) {
			return activeRow(now.Add(time.Hour)), nil
		},
	}
	logs := &fakeAccessLogStore{}
	g := &fakeGate{configured: true, err: errors.New("controller unreachable")}
	s := newTestAccessService(subs, logs, g, now)

	decision, err := s.Authorize(context.Background(), "user-42", 7)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if !decision.Granted {
		t.Error("decision.Granted = false, want true")
	}
	if decision.Actuation != model.ActuationFailed {
		t.Errorf("decision.Actuation = %q, want %q", decision.Actuation, model.ActuationFailed)
	}
	if decision.FallbackHint == "" {
		t.Error("decision.FallbackHint is empty, want fallback instruction")
	}
	if len(logs.entries) != 1 || logs.entries[0].Status != model.AccessStatusSuccess {
		t.Errorf("expected SUCCESS entry despite hardware failure, got %+v", logs.entries)
	}
}

func TestAuthorize_UnconfiguredGate_SimulatesOpen(t *testing.T) {
	now := time.Now()
	subs := &fakeSubscriptionStore{
		activeForUserUnitFn: func(ctx context.Context, userID string, unitID uint) (*model.Subscription, error) {
			return activeRow(now.Add(time.Hour)), nil
		},
	}
	logs := &fakeAccessLogStore{}
	g := &fakeGate{configured: false}
	s := newTestAccessService(subs, logs, g, now)

	decision, err := s.Authorize(context.Background(), "user-42", 7)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if !decision.Granted {
		t.Error("decision.Granted = false, want true")
	}
	if decision.Actuation != model.ActuationSimulated {
		t.Errorf("decision.Actuation = %q, want %q", decision.Actuation, model.ActuationSimulated)
	}
}

func TestAuthorize_StoreFailure_ReturnsError(t *testing.T) {
	storeErr := errors.New("connection refused")
	subs := &fakeSubscriptionStore{
		activeForUserUnitFn: func(ctx context.Context, userID string, unitID uint) (*model.Subscription, error) {
			return nil, storeErr
		},
	}
	logs := &fakeAccessLogStore{}
	g := &fakeGate{configured: true}
	s := newTestAccessService(subs, logs, g, time.Now())

	decision, err := s.Authorize(context.Background(), "user-42", 7)
	if err == nil {
		t.Fatal("Authorize returned nil error, want store failure")
	}
	if decision != nil {
		t.Errorf("decision = %+v, want nil: no decision may default to ALLOW", decision)
	}
	if g.calls != 0 {
		t.Errorf("gate calls = %d, want 0", g.calls)
	}
	if len(logs.entries) != 0 {
		t.Errorf("log entries = %d, want 0", len(logs.entries))
	}
}
