package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenpay/backend/internal/api/validate"
	"github.com/tokenpay/backend/internal/keylock"
	"github.com/tokenpay/backend/internal/models"
	"github.com/tokenpay/backend/internal/payment"
	repo "github.com/tokenpay/backend/internal/repository"
	"github.com/tokenpay/backend/internal/repository/memory"
)

type fakeProvider struct {
	sess payment.Session
	err  error
	last payment.SessionRequest
}

func (f *fakeProvider) CreateSession(_ context.Context, req payment.SessionRequest) (payment.Session, error) {
	f.last = req
	return f.sess, f.err
}

func newTestCheckout(t *testing.T, p payment.CheckoutProvider) (*CheckoutService, *memory.Transactions) {
	t.Helper()
	store := memory.NewTransactions()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCheckoutService(store, p, keylock.New(), 100, log), store
}

func TestCheckoutCreatesPendingTransaction(t *testing.T) {
	p := &fakeProvider{sess: payment.Session{ID: "cs_1", URL: "https://pay.example/cs_1", AmountCents: 5000}}
	svc, store := newTestCheckout(t, p)

	resp, err := svc.Create(context.Background(), CheckoutRequest{
		UserID:        "u1",
		Email:         "a@example.com",
		WalletAddress: "0xabc",
		TokenAmount:   50,
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", resp.SessionID)
	assert.Equal(t, "https://pay.example/cs_1", resp.URL)
	assert.Equal(t, int64(5000), resp.AmountCents)
	assert.Equal(t, int64(50), resp.TokenAmount)

	// the pending record exists before the caller is redirected
	txn, err := store.FindBySessionRef(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, models.TxnPending, txn.Status)
	assert.Equal(t, "u1", txn.UserID)
	assert.Equal(t, int64(50), txn.TokenAmount)
	assert.Equal(t, "usd", txn.Currency)

	assert.Equal(t, int64(100), p.last.UnitCents)
}

func TestCheckoutValidation(t *testing.T) {
	svc, store := newTestCheckout(t, &fakeProvider{})

	_, err := svc.Create(context.Background(), CheckoutRequest{TokenAmount: 0})
	var verrs validate.Errs
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3) // email, walletAddress, tokens

	txns, err := store.List(context.Background(), repo.Filter{})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestCheckoutDefaultsUserAndCurrency(t *testing.T) {
	p := &fakeProvider{sess: payment.Session{ID: "cs_2", URL: "https://pay.example/cs_2"}}
	svc, store := newTestCheckout(t, p)

	resp, err := svc.Create(context.Background(), CheckoutRequest{
		Email:         "a@example.com",
		WalletAddress: "0xabc",
		TokenAmount:   10,
		Country:       "DE",
	})
	require.NoError(t, err)
	// provider reported no amount; fall back to tokens * unit price
	assert.Equal(t, int64(1000), resp.AmountCents)

	txn, err := store.FindBySessionRef(context.Background(), "cs_2")
	require.NoError(t, err)
	assert.Equal(t, "guest", txn.UserID)
	assert.Equal(t, "eur", txn.Currency)
	assert.Equal(t, "DE", txn.Country)
}

func TestCheckoutProviderErrorDoesNotPersist(t *testing.T) {
	p := &fakeProvider{err: errors.New("stripe unavailable")}
	svc, store := newTestCheckout(t, p)

	_, err := svc.Create(context.Background(), CheckoutRequest{
		Email:         "a@example.com",
		WalletAddress: "0xabc",
		TokenAmount:   10,
	})
	require.Error(t, err)

	txns, err := store.List(context.Background(), repo.Filter{})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestCheckoutDuplicateSessionConflicts(t *testing.T) {
	p := &fakeProvider{sess: payment.Session{ID: "cs_dup", URL: "https://pay.example/cs_dup"}}
	svc, _ := newTestCheckout(t, p)

	req := CheckoutRequest{Email: "a@example.com", WalletAddress: "0xabc", TokenAmount: 10}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, repo.ErrConflict)
}
