package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// SessionRequest is what the checkout flow needs from the provider: a hosted
// payment page for a fixed number of tokens.
type SessionRequest struct {
	UserID        string
	Email         string
	WalletAddress string
	TokenAmount   int64
	UnitCents     int64
	Currency      string
	Country       string
}

// Session is the provider's answer: an opaque session ref and the redirect URL.
type Session struct {
	ID          string
	URL         string
	AmountCents int64
}

// CheckoutProvider creates hosted checkout sessions. The live implementation
// talks to Stripe; tests inject fakes.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
}

type StripeProvider struct {
	api        *client.API
	successURL string
	cancelURL  string
}

func NewStripeProvider(secretKey, frontendURL string) *StripeProvider {
	return &StripeProvider{
		api:        client.New(secretKey, nil),
		successURL: frontendURL + "/payment-success.html?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  frontendURL + "/payment-cancel.html",
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	currency := req.Currency
	if currency == "" {
		currency = CurrencyFor(req.Country)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:      stripe.String(req.Email),
		SuccessURL:         stripe.String(p.successURL),
		CancelURL:          stripe.String(p.cancelURL),
		PaymentMethodTypes: stripe.StringSlice(PaymentMethodsFor(req.Country)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String("Token Purchase"),
					Description: stripe.String(fmt.Sprintf("%d tokens for %s", req.TokenAmount, req.Email)),
				},
				UnitAmount: stripe.Int64(req.UnitCents),
			},
			Quantity: stripe.Int64(req.TokenAmount),
		}},
	}
	params.Context = ctx
	params.AddMetadata("userId", req.UserID)
	params.AddMetadata("walletAddress", req.WalletAddress)
	params.AddMetadata("tokenAmount", fmt.Sprintf("%d", req.TokenAmount))
	params.AddMetadata("customerEmail", req.Email)

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: s.ID, URL: s.URL, AmountCents: s.AmountTotal}, nil
}
