// Package booking holds the booking-payment concurrency core: receipt
// issuance, stall reservation, order orchestration, payment reconciliation
// and the health sweep. Correctness rests on two storage primitives being
// single atomic commands: the counter increment and the multi-row
// conditional reserve. Nothing else on the booking path needs cross-request
// synchronization.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"stall-booking/common"
	"stall-booking/common/constant"
	"stall-booking/common/errs"
	"stall-booking/outbound/postgres"
)

// ReceiptSequencer issues unique receipt sequence values per exhibition via a
// durable increment-and-fetch. Values are never reused; a failed order leaves
// a gap in the sequence.
type ReceiptSequencer struct {
	Querier *postgres.Queries
}

func (s *ReceiptSequencer) Next(ctx context.Context, exhibitionId int64) (int64, error) {
	seq, err := s.Querier.NextReceiptSequence(ctx, exhibitionId)
	if err != nil {
		slog.ErrorContext(ctx, "failed to increment receipt counter",
			common.ExtractTraceIDFromCtx(ctx), slog.Any(constant.LogFieldErr, err))
		return 0, fmt.Errorf("%w: receipt counter increment: %v", errs.ErrStorageUnavailable, err)
	}

	return seq, nil
}

// FormatReceiptNumber renders the durable receipt identifier, unique across
// exhibitions because the sequence is unique within one.
func FormatReceiptNumber(exhibitionId, seq int64) string {
	return fmt.Sprintf("EXH-%d-%d", exhibitionId, seq)
}
