package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokenpay/backend/internal/models"
	repo "github.com/tokenpay/backend/internal/repository"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

const txnColumns = `id, session_ref, payment_ref, charge_ref, user_id, email,
 wallet_address, token_amount, amount_cents, currency, country, status,
 failure_reason, created_at, updated_at`

func (r *transactionsRepo) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Status == "" {
		tx.Status = models.TxnPending
	}
	err := r.pool.QueryRow(ctx, `
INSERT INTO transactions (
  id, session_ref, payment_ref, charge_ref, user_id, email, wallet_address,
  token_amount, amount_cents, currency, country, status, failure_reason
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING `+txnColumns,
		tx.ID, tx.SessionRef, tx.PaymentRef, tx.ChargeRef, tx.UserID, tx.Email,
		tx.WalletAddress, tx.TokenAmount, tx.AmountCents, tx.Currency, tx.Country,
		tx.Status, tx.FailureReason,
	).Scan(scanTargets(&tx)...)
	if err != nil {
		return models.Transaction{}, mapErr(err)
	}
	return tx, nil
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	return r.getOne(ctx, `SELECT `+txnColumns+` FROM transactions WHERE id=$1`, id)
}

func (r *transactionsRepo) FindBySessionRef(ctx context.Context, ref string) (models.Transaction, error) {
	return r.getOne(ctx, `SELECT `+txnColumns+` FROM transactions WHERE session_ref=$1 AND session_ref <> ''`, ref)
}

func (r *transactionsRepo) FindByPaymentRef(ctx context.Context, ref string) (models.Transaction, error) {
	return r.getOne(ctx, `SELECT `+txnColumns+` FROM transactions
 WHERE payment_ref=$1 AND payment_ref <> ''
 ORDER BY created_at DESC LIMIT 1`, ref)
}

func (r *transactionsRepo) getOne(ctx context.Context, q, arg string) (models.Transaction, error) {
	var tx models.Transaction
	if err := r.pool.QueryRow(ctx, q, arg).Scan(scanTargets(&tx)...); err != nil {
		return models.Transaction{}, mapErr(err)
	}
	return tx, nil
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+txnColumns+` FROM transactions
 WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	return collect(rows)
}

func (r *transactionsRepo) List(ctx context.Context, f repo.Filter) ([]models.Transaction, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+txnColumns+` FROM transactions
 WHERE ($1 = '' OR status = $1)
   AND ($2 = '' OR user_id = $2)
   AND ($3 = '' OR country = $3)
 ORDER BY created_at DESC LIMIT $4`,
		string(f.Status), f.UserID, f.Country, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	return collect(rows)
}

func (r *transactionsRepo) UpdateStatus(ctx context.Context, id string, from, to models.TransactionStatus, fields repo.UpdateFields) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
UPDATE transactions SET
  status         = $2,
  payment_ref    = COALESCE($3, payment_ref),
  charge_ref     = COALESCE($4, charge_ref),
  amount_cents   = COALESCE($5, amount_cents),
  currency       = COALESCE($6, currency),
  failure_reason = COALESCE($7, failure_reason),
  updated_at     = now()
WHERE id=$1 AND ($8 = '' OR status = $8)`,
		id, string(to), fields.PaymentRef, fields.ChargeRef, fields.AmountCents,
		fields.Currency, fields.FailureReason, string(from))
	if err != nil {
		return false, mapErr(err)
	}
	return ct.RowsAffected() > 0, nil
}

func scanTargets(tx *models.Transaction) []any {
	return []any{
		&tx.ID, &tx.SessionRef, &tx.PaymentRef, &tx.ChargeRef, &tx.UserID,
		&tx.Email, &tx.WalletAddress, &tx.TokenAmount, &tx.AmountCents,
		&tx.Currency, &tx.Country, &tx.Status, &tx.FailureReason,
		&tx.CreatedAt, &tx.UpdatedAt,
	}
}

func collect(rows pgx.Rows) ([]models.Transaction, error) {
	defer rows.Close()
	var out []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(scanTargets(&tx)...); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repo.ErrConflict
	}
	return fmt.Errorf("%w: %v", repo.ErrUnavailable, err)
}
