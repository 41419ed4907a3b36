package payment

import (
	"encoding/json"
	"fmt"

	"github.com/johanandu/selfstoragejandu/internal/model"
)

// Kind is the closed set of event kinds this service reacts to. Everything
// else maps to KindUnknown and is acknowledged without effect, so new
// upstream event types fail safe.
type Kind int

const (
	KindUnknown Kind = iota
	KindCheckoutCompleted
	KindInvoicePaymentSucceeded
	KindInvoicePaymentFailed
	KindSubscriptionCanceled
)

// KindOf maps the processor's event type string to a Kind.
func KindOf(eventType string) Kind {
	switch eventType {
	case "checkout.session.completed":
		return KindCheckoutCompleted
	case "invoice.payment_succeeded":
		return KindInvoicePaymentSucceeded
	case "invoice.payment_failed":
		return KindInvoicePaymentFailed
	case "customer.subscription.deleted":
		return KindSubscriptionCanceled
	default:
		return KindUnknown
	}
}

// Event is the webhook envelope. Data.Object is kept raw and decoded per
// kind.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Kind returns the event's Kind.
func (e *Event) Kind() Kind {
	return KindOf(e.Type)
}

// CheckoutSession is the object of a checkout.session.completed event.
// Metadata carries the correlation keys attached at checkout time.
type CheckoutSession struct {
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// Invoice is the object of invoice.* events.
type Invoice struct {
	Subscription string `json:"subscription"`
}

// SubscriptionObject is the object of customer.subscription.* events.
type SubscriptionObject struct {
	ID string `json:"id"`
}

// ParseEvent decodes the webhook envelope. A payload that does not decode
// is model.ErrMalformedEvent; the caller replies 400 so the processor does
// not keep redelivering garbage.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedEvent, err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", model.ErrMalformedEvent)
	}
	return &event, nil
}

// DecodeObject decodes the event's data object into dst.
func (e *Event) DecodeObject(dst interface{}) error {
	if err := json.Unmarshal(e.Data.Object, dst); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedEvent, err)
	}
	return nil
}
