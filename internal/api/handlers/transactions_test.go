package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenpay/backend/internal/models"
	"github.com/tokenpay/backend/internal/repository/memory"
	"github.com/tokenpay/backend/internal/services"
)

func newTxnRouter(t *testing.T) (chi.Router, *memory.Transactions) {
	t.Helper()
	store := memory.NewTransactions()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewTransactionsHandler(services.NewQueryService(store), log)

	r := chi.NewRouter()
	r.Get("/transactions", h.List)
	r.Get("/transactions/{id}", h.Get)
	r.Get("/users/{userId}/transactions", h.UserSummary)
	return r, store
}

func TestListTransactionsFiltered(t *testing.T) {
	r, store := newTxnRouter(t)
	ctx := context.Background()

	_, err := store.Create(ctx, models.Transaction{ID: "t1", UserID: "u1", Status: models.TxnCompleted, TokenAmount: 50})
	require.NoError(t, err)
	_, err = store.Create(ctx, models.Transaction{ID: "t2", UserID: "u2", Status: models.TxnFailed})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transactions?status=completed", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success      bool                 `json:"success"`
		Count        int                  `json:"count"`
		Transactions []models.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "t1", body.Transactions[0].ID)
}

func TestListRejectsBadLimit(t *testing.T) {
	r, _ := newTxnRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transactions?limit=banana", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestGetTransactionNotFound(t *testing.T) {
	r, _ := newTxnRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transactions/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestUserSummaryTotals(t *testing.T) {
	r, store := newTxnRouter(t)
	ctx := context.Background()

	_, err := store.Create(ctx, models.Transaction{ID: "t1", UserID: "u1", Status: models.TxnCompleted, TokenAmount: 50, AmountCents: 5000})
	require.NoError(t, err)
	_, err = store.Create(ctx, models.Transaction{ID: "t2", UserID: "u1", Status: models.TxnPending, TokenAmount: 10, AmountCents: 1000})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/u1/transactions", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool                 `json:"success"`
		Summary services.UserSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Summary.Count)
	assert.Equal(t, int64(50), body.Summary.TotalTokens)
	assert.Equal(t, int64(5000), body.Summary.TotalSpendCents)
}
