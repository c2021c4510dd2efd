package services

import (
	"context"
	"log/slog"

	"github.com/tokenpay/backend/internal/api/validate"
	"github.com/tokenpay/backend/internal/keylock"
	"github.com/tokenpay/backend/internal/metrics"
	"github.com/tokenpay/backend/internal/models"
	"github.com/tokenpay/backend/internal/payment"
	repo "github.com/tokenpay/backend/internal/repository"
)

type CheckoutRequest struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress"`
	TokenAmount   int64  `json:"tokens"`
	Currency      string `json:"currency,omitempty"`
	Country       string `json:"country,omitempty"`
}

type CheckoutResponse struct {
	SessionID   string `json:"sessionId"`
	URL         string `json:"url"`
	AmountCents int64  `json:"amount_cents"`
	TokenAmount int64  `json:"tokenAmount"`
}

// CheckoutService starts a purchase: it asks the provider for a hosted
// checkout session and persists the pending transaction, keyed by the session
// ref, before the caller is redirected to pay.
type CheckoutService struct {
	store     repo.Transactions
	provider  payment.CheckoutProvider
	locks     *keylock.KeyLock
	unitCents int64
	log       *slog.Logger
}

func NewCheckoutService(store repo.Transactions, provider payment.CheckoutProvider, locks *keylock.KeyLock, unitCents int64, log *slog.Logger) *CheckoutService {
	return &CheckoutService{store: store, provider: provider, locks: locks, unitCents: unitCents, log: log}
}

func (s *CheckoutService) Create(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error) {
	var errs validate.Errs
	if e := validate.Required("email", req.Email); e != nil {
		errs = append(errs, *e)
	}
	if e := validate.Required("walletAddress", req.WalletAddress); e != nil {
		errs = append(errs, *e)
	}
	if e := validate.MinInt("tokens", req.TokenAmount, 1); e != nil {
		errs = append(errs, *e)
	}
	if len(errs) > 0 {
		return CheckoutResponse{}, errs
	}
	if req.UserID == "" {
		req.UserID = "guest"
	}
	currency := req.Currency
	if currency == "" {
		currency = payment.CurrencyFor(req.Country)
	}

	sess, err := s.provider.CreateSession(ctx, payment.SessionRequest{
		UserID:        req.UserID,
		Email:         req.Email,
		WalletAddress: req.WalletAddress,
		TokenAmount:   req.TokenAmount,
		UnitCents:     s.unitCents,
		Currency:      currency,
		Country:       req.Country,
	})
	if err != nil {
		return CheckoutResponse{}, err
	}

	amount := sess.AmountCents
	if amount == 0 {
		amount = req.TokenAmount * s.unitCents
	}

	// Same serialization discipline as the webhook path: the completion event
	// for this session can arrive while we are still writing the pending row.
	unlock := s.locks.Lock("session:" + sess.ID)
	defer unlock()

	txn, err := s.store.Create(ctx, models.Transaction{
		SessionRef:    sess.ID,
		UserID:        req.UserID,
		Email:         req.Email,
		WalletAddress: req.WalletAddress,
		TokenAmount:   req.TokenAmount,
		AmountCents:   amount,
		Currency:      currency,
		Country:       req.Country,
		Status:        models.TxnPending,
	})
	if err != nil {
		return CheckoutResponse{}, err
	}

	metrics.CheckoutSessions.Inc()
	s.log.Info("checkout session created", "txn", txn.ID, "session", sess.ID, "tokens", req.TokenAmount)

	return CheckoutResponse{
		SessionID:   sess.ID,
		URL:         sess.URL,
		AmountCents: amount,
		TokenAmount: req.TokenAmount,
	}, nil
}
