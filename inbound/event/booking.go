package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"stall-booking/booking"
	"stall-booking/common"
	"stall-booking/common/constant"
	"stall-booking/common/errs"
	"stall-booking/common/otel"
	"stall-booking/model"
	"stall-booking/outbound/postgres"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/text/message"
)

type WebhookEventStore interface {
	MarkWebhookEventProcessed(ctx context.Context, providerEventID string, orderID string) (pgconn.CommandTag, error)
}

// BookingEvent consumes the booking work queue: created bookings fan out a
// confirmation email, deduped gateway callbacks reach the reconciler.
type BookingEvent struct {
	Reconciler   *booking.PaymentReconciler
	Orders       booking.OrderStore
	Webhooks     WebhookEventStore
	Publisher    jetstream.Publisher
	InrFormatter *message.Printer

	Timeout time.Duration
}

func (in BookingEvent) CreatedHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.BookingCreatedEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil {
		slog.WarnContext(ctx, "booking created event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	reqAttr := slog.Any(constant.LogFieldPayload, string(msg))

	sendEmailReq := model.SendEmailEventMessage{
		To:      req.Email,
		Subject: "Stall Booking Confirmation",
		Body:    in.buildConfirmationEmailBody(req),
	}

	err = common.PublishMessage(ctx, in.Publisher, constant.SubjectSendEmail, sendEmailReq)
	if err != nil {
		slog.ErrorContext(ctx, "booking created event publish error", slog.Any(constant.LogFieldErr, err), reqAttr, traceIdAttr)
		return err
	}

	slog.DebugContext(ctx, "booking created event publish success", reqAttr, traceIdAttr)

	return nil
}

func (in BookingEvent) CallbackHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.PaymentCallbackEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil {
		slog.WarnContext(ctx, "payment callback event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	ctx, span := otel.Tracer.Start(ctx, "BookingEvent.callback")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	slog.InfoContext(ctx, "payment callback event receive request", slog.Any(constant.LogFieldPayload, req), traceIdAttr)

	order, err := in.Orders.FindOrderByGatewayTxnId(ctx, req.TransactionId)
	if errors.Is(err, pgx.ErrNoRows) && req.ReceiptNumber != "" {
		order, err = in.Orders.FindOrderByReceiptNumber(ctx, req.ReceiptNumber)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		slog.WarnContext(ctx, "order not found for callback", traceIdAttr, slog.String("transaction_id", req.TransactionId))
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve order for callback", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return err
	}

	err = in.Reconciler.Finalize(ctx, order.ID, booking.Result{
		Status:       req.Status,
		GatewayTxnId: req.TransactionId,
		FromWebhook:  true,
	})

	var conflict *errs.ReconciliationConflictError
	switch {
	case errors.As(err, &conflict):
		// Recorded terminal state stands; redelivery would change nothing.
		slog.ErrorContext(ctx, "payment callback conflicts with recorded state", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	case err != nil:
		return err
	}

	if _, err := in.Webhooks.MarkWebhookEventProcessed(ctx, req.ProviderEventId, order.ID); err != nil {
		slog.ErrorContext(ctx, "failed to mark webhook event processed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	}

	if conflict == nil && constant.IsTerminalPaymentStatus(req.Status) {
		in.publishOutcomeEmail(ctx, order, req.Status)
	}

	slog.InfoContext(ctx, "payment callback event success", traceIdAttr, slog.String("order_id", order.ID))

	return nil
}

func (in BookingEvent) publishOutcomeEmail(ctx context.Context, order postgres.OrderRow, status string) {
	var subject, body string

	switch status {
	case constant.PaymentStatusSuccess:
		subject = "Stall Booking Payment Received"
		body = fmt.Sprintf(constant.EmailPaymentSuccessTemplate,
			order.Name, order.ReceiptNumber, common.FormatStallIds(order.StallIDs), in.formatAmount(order.Amount))
	default:
		subject = "Stall Booking Released"
		body = fmt.Sprintf(constant.EmailPaymentFailedTemplate,
			order.Name, order.ReceiptNumber, common.FormatStallIds(order.StallIDs))
	}

	err := common.PublishMessage(ctx, in.Publisher, constant.SubjectSendEmail, model.SendEmailEventMessage{
		To:      order.Email,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish outcome email", common.ExtractTraceIDFromCtx(ctx), slog.Any(constant.LogFieldErr, err))
	}
}

func (in BookingEvent) buildConfirmationEmailBody(req model.BookingCreatedEventMessage) string {
	return fmt.Sprintf(constant.EmailBookingConfirmationTemplate,
		req.Name,
		req.ReceiptNumber,
		common.FormatStallIds(req.StallIds),
		in.formatAmount(req.Amount),
		req.ExpiredAt,
		req.RedirectUrl,
	)
}

func (in BookingEvent) formatAmount(amount int64) string {
	return in.InrFormatter.Sprintf("INR %d", amount)
}
