package model

// Denial reasons returned by the authorization engine
const (
	DenialNoActiveSubscription = "NO_ACTIVE_SUBSCRIPTION"
	DenialSubscriptionExpired  = "SUBSCRIPTION_EXPIRED"
)

// Actuation outcomes. Entitlement and hardware are reported separately:
// a granted decision with ActuationFailed is still a grant, the user falls
// back to the PIN code.
const (
	ActuationTriggered = "triggered"
	ActuationFailed    = "failed"
	ActuationSimulated = "simulated"
	ActuationSkipped   = "skipped"
)

// Decision is the result of an authorization request.
type Decision struct {
	Granted      bool   `json:"granted"`
	Reason       string `json:"reason,omitempty"`
	Message      string `json:"message"`
	FallbackHint string `json:"fallback_hint,omitempty"`
	Actuation    string `json:"actuation,omitempty"`
}
