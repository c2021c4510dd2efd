package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenpay/backend/internal/models"
	repo "github.com/tokenpay/backend/internal/repository"
)

func TestCreateConflicts(t *testing.T) {
	store := NewTransactions()
	ctx := context.Background()

	_, err := store.Create(ctx, models.Transaction{ID: "t1", SessionRef: "s1", UserID: "u1"})
	require.NoError(t, err)

	_, err = store.Create(ctx, models.Transaction{ID: "t1", UserID: "u1"})
	assert.ErrorIs(t, err, repo.ErrConflict)

	_, err = store.Create(ctx, models.Transaction{SessionRef: "s1", UserID: "u1"})
	assert.ErrorIs(t, err, repo.ErrConflict)
}

func TestUpdateStatusIsConditional(t *testing.T) {
	store := NewTransactions()
	ctx := context.Background()

	txn, err := store.Create(ctx, models.Transaction{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, models.TxnPending, txn.Status)

	ok, err := store.UpdateStatus(ctx, txn.ID, models.TxnCompleted, models.TxnRefunded, repo.UpdateFields{})
	require.NoError(t, err)
	assert.False(t, ok, "update must not apply from the wrong status")

	ok, err = store.UpdateStatus(ctx, txn.ID, models.TxnPending, models.TxnCompleted, repo.UpdateFields{})
	require.NoError(t, err)
	assert.True(t, ok)

	// unconditional update (empty from) still applies
	reason := "ledger failed"
	ok, err = store.UpdateStatus(ctx, txn.ID, "", models.TxnNeedsReview, repo.UpdateFields{FailureReason: &reason})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.GetByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TxnNeedsReview, got.Status)
	assert.Equal(t, "ledger failed", got.FailureReason)
}

func TestFindByRefs(t *testing.T) {
	store := NewTransactions()
	ctx := context.Background()

	_, err := store.FindBySessionRef(ctx, "s1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = store.FindBySessionRef(ctx, "")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	created, err := store.Create(ctx, models.Transaction{SessionRef: "s1", PaymentRef: "pi_1", UserID: "u1"})
	require.NoError(t, err)

	bySession, err := store.FindBySessionRef(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySession.ID)

	byPayment, err := store.FindByPaymentRef(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPayment.ID)
}

func TestListByUserOrderedByRecency(t *testing.T) {
	store := NewTransactions()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, models.Transaction{UserID: "u1"})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	txns, err := store.ListByUser(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.True(t, txns[0].CreatedAt.After(txns[1].CreatedAt))
}

func TestWebhookEventsDedup(t *testing.T) {
	events := NewWebhookEvents()
	ctx := context.Background()

	require.NoError(t, events.Record(ctx, models.WebhookEvent{ID: "evt_1", Kind: "x"}))
	require.NoError(t, events.Record(ctx, models.WebhookEvent{ID: "evt_1", Kind: "x"}))
	require.NoError(t, events.Record(ctx, models.WebhookEvent{ID: "evt_2", Kind: "y"}))
	assert.Equal(t, 2, events.Len())
}
