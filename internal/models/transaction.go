package models

import "time"

type TransactionStatus string

const (
	TxnPending     TransactionStatus = "pending"
	TxnCompleted   TransactionStatus = "completed"
	TxnFailed      TransactionStatus = "failed"
	TxnRefunded    TransactionStatus = "refunded"
	TxnNeedsReview TransactionStatus = "needs_review"
)

// Transaction records one token purchase attempt from pending through a
// terminal status. SessionRef and PaymentRef are opaque identifiers issued by
// the payment provider and correlate webhook events back to the purchase.
type Transaction struct {
	ID            string            `json:"id"`
	SessionRef    string            `json:"session_ref,omitempty"`
	PaymentRef    string            `json:"payment_ref,omitempty"`
	ChargeRef     string            `json:"charge_ref,omitempty"`
	UserID        string            `json:"user_id"`
	Email         string            `json:"email,omitempty"`
	WalletAddress string            `json:"wallet_address,omitempty"`
	TokenAmount   int64             `json:"token_amount"`
	AmountCents   int64             `json:"amount_cents"`
	Currency      string            `json:"currency"`
	Country       string            `json:"country,omitempty"`
	Status        TransactionStatus `json:"status"`
	FailureReason string            `json:"failure_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
