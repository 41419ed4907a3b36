// Package model defines the domain entities and the error taxonomy shared
// by the handlers and services.
package model

import "errors"

var (
	// ErrInvalidSignature means the webhook payload could not be
	// authenticated against the shared secret. The event is discarded;
	// the processor's retry schedule handles redelivery.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedEvent means the payload was authenticated but required
	// fields are missing or unparseable.
	ErrMalformedEvent = errors.New("malformed event payload")

	// ErrDuplicateSubscription is returned by the store when an insert
	// hits the unique index on the external subscription id. Callers
	// treat it as "already processed", not as a failure.
	ErrDuplicateSubscription = errors.New("subscription already exists")

	// ErrSubscriptionNotFound is returned when no matching subscription
	// row exists.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrUnitNotFound is returned when the referenced unit does not exist.
	ErrUnitNotFound = errors.New("unit not found")
)
