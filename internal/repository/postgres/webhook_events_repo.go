package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokenpay/backend/internal/models"
)

type webhookEventsRepo struct{ pool *pgxpool.Pool }

func (r *webhookEventsRepo) Record(ctx context.Context, ev models.WebhookEvent) error {
	payload := string(ev.Payload)
	if payload == "" {
		payload = "{}"
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO webhook_events (id, kind, payload)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.Kind, payload)
	if err != nil {
		return mapErr(err)
	}
	return nil
}
