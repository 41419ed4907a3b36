package repository

import (
	"context"
	"errors"
	"time"

	"github.com/johanandu/selfstoragejandu/internal/model"
	"github.com/johanandu/selfstoragejandu/prometheus"

	"gorm.io/gorm"
)

// Store is the gorm-backed implementation of all store contracts.
type Store struct {
	db *gorm.DB
}

// NewStore wraps a gorm handle. The handle must have been opened with
// TranslateError so unique violations arrive as gorm.ErrDuplicatedKey.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ActiveForUserUnit(ctx context.Context, userID string, unitID uint) (*model.Subscription, error) {
	defer prometheus.TrackDBOperation("subscription_active_lookup")(time.Now())

	var sub model.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND unit_id = ? AND status = ?", userID, unitID, model.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Store) ByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Store) Insert(ctx context.Context, sub *model.Subscription) error {
	defer prometheus.TrackDBOperation("subscription_insert")(time.Now())

	err := s.db.WithContext(ctx).Create(sub).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.ErrDuplicateSubscription
	}
	return err
}

func (s *Store) UpdateByStripeID(ctx context.Context, stripeSubscriptionID, status string, periodEnd time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(map[string]interface{}{
			"status":             status,
			"current_period_end": periodEnd,
		}).Error
}

func (s *Store) ByID(ctx context.Context, id uint) (*model.Unit, error) {
	var unit model.Unit
	err := s.db.WithContext(ctx).First(&unit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUnitNotFound
		}
		return nil, err
	}
	return &unit, nil
}

func (s *Store) List(ctx context.Context) ([]model.Unit, error) {
	var units []model.Unit
	if err := s.db.WithContext(ctx).Order("id").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (s *Store) SetStatus(ctx context.Context, id uint, status string) error {
	return s.db.WithContext(ctx).
		Model(&model.Unit{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (s *Store) Create(ctx context.Context, profile *model.Profile) error {
	err := s.db.WithContext(ctx).Create(profile).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Redelivered checkout events repeat profile creation before the
		// subscription insert decides idempotency; an existing row is fine.
		return nil
	}
	return err
}

func (s *Store) AttachStripeCustomer(ctx context.Context, userID, customerID string) error {
	return s.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ?", userID).
		Update("stripe_customer_id", customerID).Error
}

func (s *Store) Append(ctx context.Context, entry *model.AccessLog) error {
	defer prometheus.TrackDBOperation("access_log_append")(time.Now())

	return s.db.WithContext(ctx).Create(entry).Error
}
