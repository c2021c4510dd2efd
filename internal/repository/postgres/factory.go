package postgres

import (
	repo "github.com/tokenpay/backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Transactions  repo.Transactions
	WebhookEvents repo.WebhookEvents
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Transactions:  &transactionsRepo{pool},
		WebhookEvents: &webhookEventsRepo{pool},
	}
}
