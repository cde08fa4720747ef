package booking

import (
	"context"
	"log/slog"
	"stall-booking/common"
	"stall-booking/common/constant"
	"stall-booking/common/contract"
	"stall-booking/common/errs"
	"stall-booking/outbound/postgres"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// StallInventory owns stall availability state. TryReserve is all-or-nothing:
// one conditional multi-row update inside a transaction, committed only when
// every requested stall was taken. Expired holds count as available, on the
// same expiry rule the reserve statement applies.
type StallInventory struct {
	Db      contract.DbConn
	Querier *postgres.Queries

	TimeNow func() time.Time
}

// TryReserve reserves every stall in stallIds for orderId, or none of them.
// On partial availability it returns *errs.StallConflictError listing the
// blockers and leaves no state behind.
func (s *StallInventory) TryReserve(ctx context.Context, exhibitionId int64, stallIds []int64, orderId string, ttl time.Duration) (int64, error) {
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	tx, err := s.Db.Begin(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to begin reserve transaction", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return 0, errs.ErrStorageUnavailable
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			slog.ErrorContext(ctx, "failed to rollback reserve transaction", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		}
	}()

	withTx := s.Querier.WithTx(tx)

	reserved, err := withTx.ReserveStalls(ctx, postgres.ReserveStallsParams{
		OrderID:      orderId,
		ExpiresAt:    pgtype.Timestamp{Time: s.TimeNow().Add(ttl), Valid: true},
		ExhibitionID: exhibitionId,
		StallIDs:     stallIds,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to reserve stalls", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return 0, errs.ErrStorageUnavailable
	}

	if len(reserved) != len(stallIds) {
		// Rollback drops the partial row locks; nothing was published.
		return 0, &errs.StallConflictError{Unavailable: missingStallIds(stallIds, reserved)}
	}

	if err := tx.Commit(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to commit reserve transaction", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return 0, errs.ErrStorageUnavailable
	}

	var amount int64
	for _, row := range reserved {
		amount += row.Price
	}

	return amount, nil
}

// Release returns any stalls still reserved by this order to available.
// Idempotent, and a no-op for orders with no active reservation.
func (s *StallInventory) Release(ctx context.Context, orderId string) error {
	_, err := s.Querier.ReleaseStallsByOrder(ctx, orderId)
	if err != nil {
		slog.ErrorContext(ctx, "failed to release stalls",
			common.ExtractTraceIDFromCtx(ctx), slog.String("order_id", orderId), slog.Any(constant.LogFieldErr, err))
		return errs.ErrStorageUnavailable
	}

	return nil
}

// Commit transitions the order's reserved stalls to booked. Idempotent;
// must only be called after a terminal payment success.
func (s *StallInventory) Commit(ctx context.Context, orderId string) error {
	_, err := s.Querier.CommitStallsByOrder(ctx, orderId)
	if err != nil {
		slog.ErrorContext(ctx, "failed to commit stalls",
			common.ExtractTraceIDFromCtx(ctx), slog.String("order_id", orderId), slog.Any(constant.LogFieldErr, err))
		return errs.ErrStorageUnavailable
	}

	return nil
}

func missingStallIds(requested []int64, reserved []postgres.ReserveStallsRow) []int64 {
	taken := make(map[int64]struct{}, len(reserved))
	for _, row := range reserved {
		taken[row.ID] = struct{}{}
	}

	missing := make([]int64, 0, len(requested)-len(reserved))
	for _, id := range requested {
		if _, ok := taken[id]; !ok {
			missing = append(missing, id)
		}
	}

	return missing
}
