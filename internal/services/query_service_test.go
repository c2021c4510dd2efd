package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenpay/backend/internal/models"
	repo "github.com/tokenpay/backend/internal/repository"
	"github.com/tokenpay/backend/internal/repository/memory"
)

func seedQueryStore(t *testing.T) *memory.Transactions {
	t.Helper()
	store := memory.NewTransactions()
	ctx := context.Background()
	rows := []models.Transaction{
		{ID: "t1", SessionRef: "s1", UserID: "u1", TokenAmount: 50, AmountCents: 5000, Currency: "usd", Country: "US", Status: models.TxnCompleted},
		{ID: "t2", SessionRef: "s2", UserID: "u1", TokenAmount: 20, AmountCents: 2000, Currency: "usd", Country: "US", Status: models.TxnFailed},
		{ID: "t3", SessionRef: "s3", UserID: "u2", TokenAmount: 10, AmountCents: 1000, Currency: "eur", Country: "DE", Status: models.TxnCompleted},
		{ID: "t4", SessionRef: "s4", UserID: "u1", TokenAmount: 30, AmountCents: 3000, Currency: "usd", Country: "US", Status: models.TxnPending},
		{ID: "t5", SessionRef: "s5", UserID: "u2", TokenAmount: 5, AmountCents: 500, Currency: "eur", Country: "DE", Status: models.TxnNeedsReview},
	}
	for _, r := range rows {
		_, err := store.Create(ctx, r)
		require.NoError(t, err)
	}
	return store
}

func TestListFilters(t *testing.T) {
	svc := NewQueryService(seedQueryStore(t))
	ctx := context.Background()

	completed, err := svc.List(ctx, repo.Filter{Status: models.TxnCompleted})
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	u1, err := svc.List(ctx, repo.Filter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, u1, 3)

	de, err := svc.List(ctx, repo.Filter{Country: "DE"})
	require.NoError(t, err)
	assert.Len(t, de, 2)

	limited, err := svc.List(ctx, repo.Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGet(t *testing.T) {
	svc := NewQueryService(seedQueryStore(t))
	ctx := context.Background()

	txn, err := svc.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "s1", txn.SessionRef)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestUserSummaryFoldsCompletedOnly(t *testing.T) {
	svc := NewQueryService(seedQueryStore(t))

	sum, err := svc.UserSummary(context.Background(), "u1", 50)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Count)
	assert.Equal(t, int64(50), sum.TotalTokens)
	assert.Equal(t, int64(5000), sum.TotalSpendCents)
}

func TestStats(t *testing.T) {
	svc := NewQueryService(seedQueryStore(t))

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 2, st.Completed)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, 1, st.NeedsReview)
	assert.Equal(t, int64(60), st.TotalTokens)
	assert.Equal(t, int64(6000), st.TotalRevenueCents)
}
