package model

import (
	"time"
)

// Profile represents a renter. The ID is a string rather than an
// auto-increment because profiles created by the webhook reconciler reuse
// the payment processor's customer id as their identity.
type Profile struct {
	ID               string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	Email            string    `json:"email" gorm:"type:varchar(100);index"`
	FullName         string    `json:"full_name" gorm:"type:varchar(100)"`
	PhoneNumber      string    `json:"phone_number" gorm:"type:varchar(30)"`
	StripeCustomerID string    `json:"stripe_customer_id" gorm:"type:varchar(64);index"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
