package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertOrder = `
INSERT INTO orders (id, exhibition_id, receipt_seq, receipt_number, stall_ids, amount,
                    payment_status, name, email, phone, expired_at)
VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, $8, $9, $10)
`

type InsertOrderParams struct {
	ID            string
	ExhibitionID  int64
	ReceiptSeq    int64
	ReceiptNumber string
	StallIDs      []int64
	Amount        int64
	Name          string
	Email         string
	Phone         string
	ExpiredAt     pgtype.Timestamp
}

func (q *Queries) InsertOrder(ctx context.Context, arg InsertOrderParams) error {
	_, err := q.db.Exec(ctx, insertOrder,
		arg.ID, arg.ExhibitionID, arg.ReceiptSeq, arg.ReceiptNumber, arg.StallIDs,
		arg.Amount, arg.Name, arg.Email, arg.Phone, arg.ExpiredAt,
	)
	return err
}

const orderColumns = `
id, exhibition_id, receipt_number, stall_ids, amount, payment_status,
gateway_txn_id, webhook_received, webhook_received_at, name, email, created_at
`

type OrderRow struct {
	ID                string
	ExhibitionID      int64
	ReceiptNumber     string
	StallIDs          []int64
	Amount            int64
	PaymentStatus     string
	GatewayTxnID      pgtype.Text
	WebhookReceived   bool
	WebhookReceivedAt pgtype.Timestamp
	Name              string
	Email             string
	CreatedAt         pgtype.Timestamp
}

func (q *Queries) scanOrderRow(row interface{ Scan(dest ...any) error }) (OrderRow, error) {
	var i OrderRow
	err := row.Scan(
		&i.ID, &i.ExhibitionID, &i.ReceiptNumber, &i.StallIDs, &i.Amount, &i.PaymentStatus,
		&i.GatewayTxnID, &i.WebhookReceived, &i.WebhookReceivedAt, &i.Name, &i.Email, &i.CreatedAt,
	)
	return i, err
}

const findOrderById = `
SELECT` + orderColumns + `FROM orders WHERE id = $1
`

func (q *Queries) FindOrderById(ctx context.Context, id string) (OrderRow, error) {
	return q.scanOrderRow(q.db.QueryRow(ctx, findOrderById, id))
}

const findOrderByGatewayTxnId = `
SELECT` + orderColumns + `FROM orders WHERE gateway_txn_id = $1
`

func (q *Queries) FindOrderByGatewayTxnId(ctx context.Context, gatewayTxnID string) (OrderRow, error) {
	return q.scanOrderRow(q.db.QueryRow(ctx, findOrderByGatewayTxnId, gatewayTxnID))
}

const findOrderByReceiptNumber = `
SELECT` + orderColumns + `FROM orders WHERE receipt_number = $1
`

func (q *Queries) FindOrderByReceiptNumber(ctx context.Context, receiptNumber string) (OrderRow, error) {
	return q.scanOrderRow(q.db.QueryRow(ctx, findOrderByReceiptNumber, receiptNumber))
}

const setOrderProcessing = `
UPDATE orders
SET payment_status = 'processing', gateway_txn_id = $2, updated_at = now()
WHERE id = $1 AND payment_status = 'pending'
`

func (q *Queries) SetOrderProcessing(ctx context.Context, id string, gatewayTxnID string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, setOrderProcessing, id, gatewayTxnID)
}

// finalizeOrder records a terminal payment status exactly once. A second
// attempt, or an attempt against an already-terminal order, affects zero rows.
const finalizeOrder = `
UPDATE orders
SET payment_status = $2,
    webhook_received = webhook_received OR $3,
    webhook_received_at = COALESCE(webhook_received_at, $4),
    updated_at = now()
WHERE id = $1 AND payment_status IN ('pending', 'processing')
`

type FinalizeOrderParams struct {
	ID                string
	PaymentStatus     string
	WebhookReceived   bool
	WebhookReceivedAt pgtype.Timestamp
}

func (q *Queries) FinalizeOrder(ctx context.Context, arg FinalizeOrderParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, finalizeOrder, arg.ID, arg.PaymentStatus, arg.WebhookReceived, arg.WebhookReceivedAt)
}

const countStuckPendingOrders = `
SELECT count(*) FROM orders
WHERE payment_status IN ('pending', 'processing') AND created_at < $1
`

func (q *Queries) CountStuckPendingOrders(ctx context.Context, before pgtype.Timestamp) (int64, error) {
	row := q.db.QueryRow(ctx, countStuckPendingOrders, before)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const webhookDeliveryStats = `
SELECT count(*), count(*) FILTER (WHERE webhook_received)
FROM orders
WHERE created_at >= $1 AND payment_status <> 'pending'
`

type WebhookDeliveryStatsRow struct {
	Total    int64
	Received int64
}

func (q *Queries) WebhookDeliveryStats(ctx context.Context, since pgtype.Timestamp) (WebhookDeliveryStatsRow, error) {
	row := q.db.QueryRow(ctx, webhookDeliveryStats, since)
	var i WebhookDeliveryStatsRow
	err := row.Scan(&i.Total, &i.Received)
	return i, err
}
