// Package repository defines the narrow data-access contracts the services
// depend on, and their PostgreSQL implementation. Services receive these
// interfaces at construction so tests can swap in fakes.
package repository

import (
	"context"
	"time"

	"github.com/johanandu/selfstoragejandu/internal/model"
)

// SubscriptionStore is the contract the engines use against the
// subscription table. Insert must enforce uniqueness on the external
// subscription id and report a violation as model.ErrDuplicateSubscription.
type SubscriptionStore interface {
	// ActiveForUserUnit returns the active subscription for the (user, unit)
	// pair, or model.ErrSubscriptionNotFound.
	ActiveForUserUnit(ctx context.Context, userID string, unitID uint) (*model.Subscription, error)

	// ByStripeID returns the subscription with the given external id, or
	// model.ErrSubscriptionNotFound.
	ByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error)

	// Insert creates the subscription row. A unique-index violation on the
	// external subscription id is returned as model.ErrDuplicateSubscription.
	Insert(ctx context.Context, sub *model.Subscription) error

	// UpdateByStripeID sets status and period end on the row with the given
	// external id. Updating a missing row is a no-op, not an error.
	UpdateByStripeID(ctx context.Context, stripeSubscriptionID, status string, periodEnd time.Time) error
}

// UnitStore provides unit reads and the occupancy write used on activation.
type UnitStore interface {
	ByID(ctx context.Context, id uint) (*model.Unit, error)
	List(ctx context.Context) ([]model.Unit, error)
	SetStatus(ctx context.Context, id uint, status string) error
}

// ProfileStore resolves renter identities for the reconciler.
type ProfileStore interface {
	// Create inserts a profile. Inserting an id that already exists is
	// treated as success so a redelivered checkout event can repeat the
	// step safely.
	Create(ctx context.Context, profile *model.Profile) error

	// AttachStripeCustomer records the processor's customer id on an
	// existing profile.
	AttachStripeCustomer(ctx context.Context, userID, customerID string) error
}

// AccessLogStore is the append-only audit sink for gate-open attempts.
type AccessLogStore interface {
	Append(ctx context.Context, entry *model.AccessLog) error
}
