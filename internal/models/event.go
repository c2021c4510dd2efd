package models

import "time"

// EventKind values match the payment provider's event type strings.
type EventKind string

const (
	EventCheckoutCompleted EventKind = "checkout.session.completed"
	EventPaymentSucceeded  EventKind = "payment_intent.succeeded"
	EventPaymentFailed     EventKind = "payment_intent.payment_failed"
	EventChargeRefunded    EventKind = "charge.refunded"
)

// PaymentEvent is a verified, provider-neutral payment event. The verifier is
// the only place that knows the provider's envelope; everything downstream
// works on this struct.
type PaymentEvent struct {
	ID            string
	Kind          EventKind
	SessionRef    string
	PaymentRef    string
	ChargeRef     string
	UserID        string
	Email         string
	WalletAddress string
	TokenAmount   int64
	AmountCents   int64
	Currency      string
	FailureReason string
	Raw           []byte
}

// WebhookEvent is the archived copy of a verified inbound event, keyed by the
// provider's event id so redeliveries collapse into one row.
type WebhookEvent struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Payload    []byte    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}
