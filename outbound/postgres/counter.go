package postgres

import "context"

// nextReceiptSequence is the only mutation counters ever see: a durable
// increment-and-fetch. Concurrent callers each get a distinct value.
const nextReceiptSequence = `
INSERT INTO counters (exhibition_id, last_value)
VALUES ($1, 1)
ON CONFLICT (exhibition_id)
DO UPDATE SET last_value = counters.last_value + 1
RETURNING last_value
`

func (q *Queries) NextReceiptSequence(ctx context.Context, exhibitionID int64) (int64, error) {
	row := q.db.QueryRow(ctx, nextReceiptSequence, exhibitionID)
	var lastValue int64
	err := row.Scan(&lastValue)
	return lastValue, err
}

const findCounterLastValue = `
SELECT last_value FROM counters WHERE exhibition_id = $1
`

func (q *Queries) FindCounterLastValue(ctx context.Context, exhibitionID int64) (int64, error) {
	row := q.db.QueryRow(ctx, findCounterLastValue, exhibitionID)
	var lastValue int64
	err := row.Scan(&lastValue)
	return lastValue, err
}
