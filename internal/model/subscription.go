package model

import (
	"time"
)

// Subscription states
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription is the authorization source of truth: a row with status
// "active" and a future CurrentPeriodEnd entitles UserID to open the gate
// of UnitID. StripeSubscriptionID carries a unique index; the webhook
// reconciler uses the constraint as its idempotency guard against duplicate
// checkout events. Canceled rows are kept for audit, never deleted.
type Subscription struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	UserID               string    `json:"user_id" gorm:"type:varchar(64);index"`
	UnitID               uint      `json:"unit_id" gorm:"index"`
	StripeSubscriptionID string    `json:"stripe_subscription_id" gorm:"type:varchar(64);uniqueIndex"`
	Status               string    `json:"status" gorm:"type:varchar(20)"`
	CurrentPeriodEnd     time.Time `json:"current_period_end"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
