package repository

import (
	"context"
	"errors"

	"github.com/tokenpay/backend/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the given key.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a create would violate a uniqueness
	// constraint (transaction id or session ref).
	ErrConflict = errors.New("conflict")
	// ErrUnavailable wraps infrastructure-level store failures. Handlers map
	// it to 500 so the provider redelivers the event.
	ErrUnavailable = errors.New("store unavailable")
)

// Filter narrows List results. Zero values mean "no filter".
type Filter struct {
	Status  models.TransactionStatus
	UserID  string
	Country string
	Limit   int
}

// UpdateFields carries optional columns set together with a status change.
// Nil pointers leave the stored value untouched.
type UpdateFields struct {
	PaymentRef    *string
	ChargeRef     *string
	AmountCents   *int64
	Currency      *string
	FailureReason *string
}

type Transactions interface {
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	FindBySessionRef(ctx context.Context, ref string) (models.Transaction, error)
	FindByPaymentRef(ctx context.Context, ref string) (models.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	List(ctx context.Context, f Filter) ([]models.Transaction, error)

	// UpdateStatus atomically moves a transaction from one status to another.
	// When from is non-empty the update only applies while the row is still in
	// that status; the returned bool reports whether a row actually changed.
	// Concurrent handlers racing on the same record see exactly one winner.
	UpdateStatus(ctx context.Context, id string, from, to models.TransactionStatus, fields UpdateFields) (bool, error)
}

type WebhookEvents interface {
	// Record archives a verified event. Redelivery of the same provider event
	// id is a no-op.
	Record(ctx context.Context, ev models.WebhookEvent) error
}
