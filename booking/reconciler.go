package booking

import (
	"context"
	"errors"
	"log/slog"
	"stall-booking/common"
	"stall-booking/common/constant"
	"stall-booking/common/errs"
	"stall-booking/outbound/gateway"
	"stall-booking/outbound/notifier"
	"stall-booking/outbound/postgres"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Result is a terminal (or pending) payment outcome reported by the
// provider, either pushed over the webhook or pulled by a client poll.
type Result struct {
	Status       string
	GatewayTxnId string
	FromWebhook  bool
}

// PaymentReconciler merges webhook pushes and client-initiated polls into a
// single idempotent terminal state per order. Whichever trigger reaches
// Finalize first wins; a later conflicting terminal result is rejected and
// never overwrites the recorded state.
type PaymentReconciler struct {
	Orders    OrderStore
	Inventory Inventory
	Gateway   gateway.PaymentGateway
	Notifier  notifier.Notifier

	TimeNow func() time.Time
}

// Finalize applies a terminal payment result to an order exactly once.
// Reapplying the same result is a no-op; a different terminal result yields
// *errs.ReconciliationConflictError. On success the stalls are committed, on
// failure or cancel they are released.
func (r *PaymentReconciler) Finalize(ctx context.Context, orderId string, result Result) error {
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	if !constant.IsTerminalPaymentStatus(result.Status) {
		slog.DebugContext(ctx, "ignoring non-terminal payment result", traceIdAttr,
			slog.String("order_id", orderId), slog.String("status", result.Status))
		return nil
	}

	var receivedAt pgtype.Timestamp
	if result.FromWebhook {
		receivedAt = timestamp(r.TimeNow())
	}

	cmd, err := r.Orders.FinalizeOrder(ctx, postgres.FinalizeOrderParams{
		ID:                orderId,
		PaymentStatus:     result.Status,
		WebhookReceived:   result.FromWebhook,
		WebhookReceivedAt: receivedAt,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to finalize order", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return errs.ErrStorageUnavailable
	}

	if cmd.RowsAffected() == 0 {
		return r.resolveTerminalClash(ctx, orderId, result.Status)
	}

	switch result.Status {
	case constant.PaymentStatusSuccess:
		if err := r.Inventory.Commit(ctx, orderId); err != nil {
			return err
		}
	default:
		if err := r.Inventory.Release(ctx, orderId); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "order finalized", traceIdAttr,
		slog.String("order_id", orderId), slog.String("status", result.Status))

	return nil
}

// resolveTerminalClash runs when the conditional finalize touched no row: the
// order already holds a terminal state. The same state means a duplicate
// delivery (no-op); a different one is a reconciliation conflict that needs
// manual review.
func (r *PaymentReconciler) resolveTerminalClash(ctx context.Context, orderId string, attempted string) error {
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	order, err := r.Orders.FindOrderById(ctx, orderId)
	if err != nil {
		slog.ErrorContext(ctx, "failed to re-read finalized order", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return errs.ErrStorageUnavailable
	}

	if order.PaymentStatus == attempted {
		slog.DebugContext(ctx, "duplicate terminal result, no-op", traceIdAttr,
			slog.String("order_id", orderId), slog.String("status", attempted))
		return nil
	}

	conflict := &errs.ReconciliationConflictError{
		OrderId:   orderId,
		Recorded:  order.PaymentStatus,
		Attempted: attempted,
	}

	slog.ErrorContext(ctx, "reconciliation conflict", traceIdAttr,
		slog.String("order_id", orderId),
		slog.String("recorded", order.PaymentStatus),
		slog.String("attempted", attempted))

	if r.Notifier != nil {
		if alertErr := r.Notifier.Alert(ctx, "Reconciliation conflict", conflict.Error()); alertErr != nil {
			slog.ErrorContext(ctx, "failed to send conflict alert", traceIdAttr, slog.Any(constant.LogFieldErr, alertErr))
		}
	}

	return conflict
}

// VerifyPoll serves the client-initiated status check. The key may be the
// gateway transaction id or, when the client does not know it yet, the local
// receipt number. A terminal gateway answer is fed through Finalize so both
// triggers converge on the same state machine.
func (r *PaymentReconciler) VerifyPoll(ctx context.Context, key string) (string, error) {
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	order, err := r.Orders.FindOrderByGatewayTxnId(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		order, err = r.Orders.FindOrderByReceiptNumber(ctx, key)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return "", &errs.HttpError{Code: 404, Message: "Order not found"}
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve order for verify", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return "", errs.ErrStorageUnavailable
	}

	if constant.IsTerminalPaymentStatus(order.PaymentStatus) {
		return order.PaymentStatus, nil
	}

	verifyKey := order.GatewayTxnID.String
	if verifyKey == "" {
		verifyKey = order.ReceiptNumber
	}

	verified, err := r.Gateway.Verify(ctx, verifyKey)
	if err != nil {
		slog.ErrorContext(ctx, "gateway verify failed", traceIdAttr,
			slog.String("order_id", order.ID), slog.Any(constant.LogFieldErr, err))
		return "", err
	}

	if !constant.IsTerminalPaymentStatus(verified.Status) {
		return order.PaymentStatus, nil
	}

	err = r.Finalize(ctx, order.ID, Result{Status: verified.Status, GatewayTxnId: verified.GatewayTxnId})
	if err != nil {
		var conflict *errs.ReconciliationConflictError
		if errors.As(err, &conflict) {
			// The recorded state stands; report it rather than the poll result.
			return conflict.Recorded, nil
		}
		return "", err
	}

	return verified.Status, nil
}

func timestamp(t time.Time) pgtype.Timestamp {
	return pgtype.Timestamp{Time: t, Valid: true}
}
