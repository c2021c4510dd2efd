package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/tokenpay/backend/internal/models"
)

// ErrVerification marks an event whose signature did not check out. Nothing
// downstream of the verifier ever sees an unverified payload.
var ErrVerification = errors.New("event verification failed")

// Verifier authenticates a raw webhook payload and maps it into a
// provider-neutral PaymentEvent.
type Verifier interface {
	Verify(payload []byte, sigHeader string) (models.PaymentEvent, error)
}

type StripeVerifier struct {
	secret string
}

func NewStripeVerifier(webhookSecret string) *StripeVerifier {
	return &StripeVerifier{secret: webhookSecret}
}

func (v *StripeVerifier) Verify(payload []byte, sigHeader string) (models.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return models.PaymentEvent{}, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	pe := models.PaymentEvent{
		ID:   event.ID,
		Kind: models.EventKind(event.Type),
		Raw:  payload,
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return models.PaymentEvent{}, fmt.Errorf("decode checkout session: %w", err)
		}
		pe.SessionRef = sess.ID
		if sess.PaymentIntent != nil {
			pe.PaymentRef = sess.PaymentIntent.ID
		}
		pe.AmountCents = sess.AmountTotal
		pe.Currency = string(sess.Currency)
		fillFromMetadata(&pe, sess.Metadata)

	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return models.PaymentEvent{}, fmt.Errorf("decode payment intent: %w", err)
		}
		pe.PaymentRef = pi.ID
		pe.AmountCents = pi.Amount
		pe.Currency = string(pi.Currency)
		if pi.LatestCharge != nil {
			pe.ChargeRef = pi.LatestCharge.ID
		}
		fillFromMetadata(&pe, pi.Metadata)
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			pe.FailureReason = pi.LastPaymentError.Msg
		} else if pe.Kind == models.EventPaymentFailed {
			pe.FailureReason = "payment failed"
		}

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return models.PaymentEvent{}, fmt.Errorf("decode charge: %w", err)
		}
		pe.ChargeRef = ch.ID
		if ch.PaymentIntent != nil {
			pe.PaymentRef = ch.PaymentIntent.ID
		}
		pe.AmountCents = ch.AmountRefunded
		pe.Currency = string(ch.Currency)
		fillFromMetadata(&pe, ch.Metadata)
	}

	return pe, nil
}

// fillFromMetadata copies the purchase metadata attached at session-creation
// time. Events do not always carry every field, so only non-empty values win.
func fillFromMetadata(pe *models.PaymentEvent, md map[string]string) {
	if md == nil {
		return
	}
	if v := md["userId"]; v != "" {
		pe.UserID = v
	}
	if v := md["walletAddress"]; v != "" {
		pe.WalletAddress = v
	}
	if v := md["customerEmail"]; v != "" {
		pe.Email = v
	}
	if v := md["tokenAmount"]; v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			pe.TokenAmount = n
		}
	}
}
