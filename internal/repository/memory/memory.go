// Package memory holds in-process implementations of the repository
// contracts. They back tests and the no-database dev mode; semantics mirror
// the postgres implementations, including the uniqueness and conditional
// update guarantees.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tokenpay/backend/internal/models"
	repo "github.com/tokenpay/backend/internal/repository"
)

type Transactions struct {
	mu   sync.Mutex
	byID map[string]models.Transaction
}

func NewTransactions() *Transactions {
	return &Transactions{byID: make(map[string]models.Transaction)}
}

func (r *Transactions) Create(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Status == "" {
		tx.Status = models.TxnPending
	}
	if _, ok := r.byID[tx.ID]; ok {
		return models.Transaction{}, repo.ErrConflict
	}
	if tx.SessionRef != "" {
		for _, other := range r.byID {
			if other.SessionRef == tx.SessionRef {
				return models.Transaction{}, repo.ErrConflict
			}
		}
	}
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	r.byID[tx.ID] = tx
	return tx, nil
}

func (r *Transactions) GetByID(_ context.Context, id string) (models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byID[id]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	return tx, nil
}

func (r *Transactions) FindBySessionRef(_ context.Context, ref string) (models.Transaction, error) {
	return r.findBy(func(tx models.Transaction) bool { return ref != "" && tx.SessionRef == ref })
}

func (r *Transactions) FindByPaymentRef(_ context.Context, ref string) (models.Transaction, error) {
	return r.findBy(func(tx models.Transaction) bool { return ref != "" && tx.PaymentRef == ref })
}

func (r *Transactions) findBy(match func(models.Transaction) bool) (models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found models.Transaction
	ok := false
	for _, tx := range r.byID {
		if match(tx) && (!ok || tx.CreatedAt.After(found.CreatedAt)) {
			found, ok = tx, true
		}
	}
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	return found, nil
}

func (r *Transactions) ListByUser(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.List(ctx, repo.Filter{UserID: userID, Limit: limit})
}

func (r *Transactions) List(_ context.Context, f repo.Filter) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	var out []models.Transaction
	for _, tx := range r.byID {
		if f.Status != "" && tx.Status != f.Status {
			continue
		}
		if f.UserID != "" && tx.UserID != f.UserID {
			continue
		}
		if f.Country != "" && tx.Country != f.Country {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Transactions) UpdateStatus(_ context.Context, id string, from, to models.TransactionStatus, fields repo.UpdateFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	if from != "" && tx.Status != from {
		return false, nil
	}
	tx.Status = to
	if fields.PaymentRef != nil {
		tx.PaymentRef = *fields.PaymentRef
	}
	if fields.ChargeRef != nil {
		tx.ChargeRef = *fields.ChargeRef
	}
	if fields.AmountCents != nil {
		tx.AmountCents = *fields.AmountCents
	}
	if fields.Currency != nil {
		tx.Currency = *fields.Currency
	}
	if fields.FailureReason != nil {
		tx.FailureReason = *fields.FailureReason
	}
	tx.UpdatedAt = time.Now()
	r.byID[id] = tx
	return true, nil
}

type WebhookEvents struct {
	mu   sync.Mutex
	byID map[string]models.WebhookEvent
}

func NewWebhookEvents() *WebhookEvents {
	return &WebhookEvents{byID: make(map[string]models.WebhookEvent)}
}

func (r *WebhookEvents) Record(_ context.Context, ev models.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[ev.ID]; ok {
		return nil
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	r.byID[ev.ID] = ev
	return nil
}

// Len reports how many distinct events were archived.
func (r *WebhookEvents) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
