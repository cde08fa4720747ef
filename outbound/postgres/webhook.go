package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// insertWebhookEvent is the authoritative dedupe for redelivered callbacks:
// the second insert of the same provider event id affects zero rows.
const insertWebhookEvent = `
INSERT INTO webhook_events (provider_event_id, payload, received_at)
VALUES ($1, $2, now())
ON CONFLICT (provider_event_id) DO NOTHING
`

func (q *Queries) InsertWebhookEvent(ctx context.Context, providerEventID string, payload []byte) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, insertWebhookEvent, providerEventID, payload)
}

const markWebhookEventProcessed = `
UPDATE webhook_events
SET processed = TRUE, order_id = $2
WHERE provider_event_id = $1
`

func (q *Queries) MarkWebhookEventProcessed(ctx context.Context, providerEventID string, orderID string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, markWebhookEventProcessed, providerEventID, orderID)
}
