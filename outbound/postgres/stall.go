package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// reserveStalls takes every requested stall in one conditional multi-row
// update. A row qualifies when it is available or holds an expired
// reservation; the expiry rule (reserve_expires_at < now()) is the single
// rule shared with every other statement that inspects holds.
const reserveStalls = `
UPDATE stalls
SET status = 'reserved', reserved_by_order_id = $1, reserve_expires_at = $2, updated_at = now()
WHERE exhibition_id = $3
  AND id = ANY ($4)
  AND (status = 'available' OR (status = 'reserved' AND reserve_expires_at < now()))
RETURNING id, price
`

type ReserveStallsParams struct {
	OrderID      string
	ExpiresAt    pgtype.Timestamp
	ExhibitionID int64
	StallIDs     []int64
}

type ReserveStallsRow struct {
	ID    int64
	Price int64
}

func (q *Queries) ReserveStalls(ctx context.Context, arg ReserveStallsParams) ([]ReserveStallsRow, error) {
	rows, err := q.db.Query(ctx, reserveStalls, arg.OrderID, arg.ExpiresAt, arg.ExhibitionID, arg.StallIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ReserveStallsRow
	for rows.Next() {
		var i ReserveStallsRow
		if err := rows.Scan(&i.ID, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}

	return items, rows.Err()
}

const releaseStallsByOrder = `
UPDATE stalls
SET status = 'available', reserved_by_order_id = NULL, reserve_expires_at = NULL, updated_at = now()
WHERE reserved_by_order_id = $1 AND status = 'reserved'
`

func (q *Queries) ReleaseStallsByOrder(ctx context.Context, orderID string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, releaseStallsByOrder, orderID)
}

const commitStallsByOrder = `
UPDATE stalls
SET status = 'booked', reserve_expires_at = NULL, updated_at = now()
WHERE reserved_by_order_id = $1 AND status = 'reserved'
`

func (q *Queries) CommitStallsByOrder(ctx context.Context, orderID string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, commitStallsByOrder, orderID)
}

const listStalls = `
SELECT id, exhibition_id, number, status, price, reserve_expires_at
FROM stalls
ORDER BY exhibition_id, number
`

type StallRow struct {
	ID               int64
	ExhibitionID     int64
	Number           string
	Status           string
	Price            int64
	ReserveExpiresAt pgtype.Timestamp
}

func (q *Queries) ListStalls(ctx context.Context) ([]StallRow, error) {
	rows, err := q.db.Query(ctx, listStalls)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []StallRow
	for rows.Next() {
		var i StallRow
		if err := rows.Scan(&i.ID, &i.ExhibitionID, &i.Number, &i.Status, &i.Price, &i.ReserveExpiresAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}

	return items, rows.Err()
}
