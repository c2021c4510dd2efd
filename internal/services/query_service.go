package services

import (
	"context"

	"github.com/tokenpay/backend/internal/models"
	repo "github.com/tokenpay/backend/internal/repository"
)

// QueryService is the read side: filters and simple folds, no side effects.
type QueryService struct {
	store repo.Transactions
}

func NewQueryService(store repo.Transactions) *QueryService {
	return &QueryService{store: store}
}

func (s *QueryService) List(ctx context.Context, f repo.Filter) ([]models.Transaction, error) {
	return s.store.List(ctx, f)
}

func (s *QueryService) Get(ctx context.Context, id string) (models.Transaction, error) {
	return s.store.GetByID(ctx, id)
}

type UserSummary struct {
	UserID          string               `json:"userId"`
	Count           int                  `json:"count"`
	TotalTokens     int64                `json:"totalTokens"`
	TotalSpendCents int64                `json:"totalSpendCents"`
	Transactions    []models.Transaction `json:"transactions"`
}

// UserSummary returns a user's transactions, newest first, with totals folded
// over the completed ones. Pending or failed purchases never count toward
// delivered tokens.
func (s *QueryService) UserSummary(ctx context.Context, userID string, limit int) (UserSummary, error) {
	txns, err := s.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return UserSummary{}, err
	}
	sum := UserSummary{UserID: userID, Count: len(txns), Transactions: txns}
	for _, tx := range txns {
		if tx.Status != models.TxnCompleted {
			continue
		}
		sum.TotalTokens += tx.TokenAmount
		sum.TotalSpendCents += tx.AmountCents
	}
	return sum, nil
}

type Stats struct {
	Total             int   `json:"total"`
	Pending           int   `json:"pending"`
	Completed         int   `json:"completed"`
	Failed            int   `json:"failed"`
	Refunded          int   `json:"refunded"`
	NeedsReview       int   `json:"needsReview"`
	TotalTokens       int64 `json:"totalTokens"`
	TotalRevenueCents int64 `json:"totalRevenueCents"`
}

func (s *QueryService) Stats(ctx context.Context) (Stats, error) {
	txns, err := s.store.List(ctx, repo.Filter{Limit: 10000})
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(txns)}
	for _, tx := range txns {
		switch tx.Status {
		case models.TxnPending:
			st.Pending++
		case models.TxnCompleted:
			st.Completed++
			st.TotalTokens += tx.TokenAmount
			st.TotalRevenueCents += tx.AmountCents
		case models.TxnFailed:
			st.Failed++
		case models.TxnRefunded:
			st.Refunded++
		case models.TxnNeedsReview:
			st.NeedsReview++
		}
	}
	return st, nil
}
