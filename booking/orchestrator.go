package booking

import (
	"context"
	"log/slog"
	"stall-booking/common"
	"stall-booking/common/constant"
	"stall-booking/common/errs"
	"stall-booking/model"
	"stall-booking/outbound/gateway"
	"stall-booking/outbound/postgres"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/oklog/ulid/v2"
)

type Sequencer interface {
	Next(ctx context.Context, exhibitionId int64) (int64, error)
}

type Inventory interface {
	TryReserve(ctx context.Context, exhibitionId int64, stallIds []int64, orderId string, ttl time.Duration) (int64, error)
	Release(ctx context.Context, orderId string) error
	Commit(ctx context.Context, orderId string) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, arg postgres.InsertOrderParams) error
	SetOrderProcessing(ctx context.Context, id string, gatewayTxnId string) (pgconn.CommandTag, error)
	FinalizeOrder(ctx context.Context, arg postgres.FinalizeOrderParams) (pgconn.CommandTag, error)
	FindOrderById(ctx context.Context, id string) (postgres.OrderRow, error)
	FindOrderByGatewayTxnId(ctx context.Context, gatewayTxnId string) (postgres.OrderRow, error)
	FindOrderByReceiptNumber(ctx context.Context, receiptNumber string) (postgres.OrderRow, error)
}

// BookingOrchestrator composes reservation, receipt issuance, order
// persistence and gateway initiation into one logical create-order
// operation. For racing calls with overlapping stall sets, at most one call
// per contested stall proceeds past the reserve step; the losers observe a
// conflict and consume no receipt number.
type BookingOrchestrator struct {
	Inventory Inventory
	Sequencer Sequencer
	Orders    OrderStore
	Gateway   gateway.PaymentGateway
	Publisher jetstream.Publisher

	TimeNow        func() time.Time
	ReservationTTL time.Duration
}

// CreateOrder runs the booking path. On a gateway initiate failure the
// reservation is released and the order marked failed before the error is
// returned; the response still carries the receipt number for support
// lookup. Reservations are never left dangling.
func (o *BookingOrchestrator) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (model.CreateOrderResponse, error) {
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	orderId := ulid.Make().String()

	amount, err := o.Inventory.TryReserve(ctx, req.ExhibitionId, req.StallIds, orderId, o.ReservationTTL)
	if err != nil {
		// Conflict or storage failure: nothing reserved, no receipt consumed.
		return model.CreateOrderResponse{}, err
	}

	seq, err := o.Sequencer.Next(ctx, req.ExhibitionId)
	if err != nil {
		o.releaseQuietly(ctx, orderId)
		return model.CreateOrderResponse{}, err
	}

	receiptNumber := FormatReceiptNumber(req.ExhibitionId, seq)
	expiredAt := o.TimeNow().Add(o.ReservationTTL)

	err = o.Orders.InsertOrder(ctx, postgres.InsertOrderParams{
		ID:            orderId,
		ExhibitionID:  req.ExhibitionId,
		ReceiptSeq:    seq,
		ReceiptNumber: receiptNumber,
		StallIDs:      req.StallIds,
		Amount:        amount,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		ExpiredAt:     timestamp(expiredAt),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to insert order", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		o.releaseQuietly(ctx, orderId)
		return model.CreateOrderResponse{}, errs.ErrStorageUnavailable
	}

	initiated, err := o.Gateway.Initiate(ctx, gateway.InitiateRequest{
		OrderId:       orderId,
		ReceiptNumber: receiptNumber,
		Amount:        amount,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
	})
	if err != nil {
		slog.ErrorContext(ctx, "gateway initiate failed", traceIdAttr,
			slog.String("receipt_number", receiptNumber), slog.Any(constant.LogFieldErr, err))

		o.releaseQuietly(ctx, orderId)

		if _, failErr := o.Orders.FinalizeOrder(ctx, postgres.FinalizeOrderParams{
			ID:            orderId,
			PaymentStatus: constant.PaymentStatusFailed,
		}); failErr != nil {
			slog.ErrorContext(ctx, "failed to mark order failed after initiate error", traceIdAttr, slog.Any(constant.LogFieldErr, failErr))
		}

		return model.CreateOrderResponse{ReceiptNumber: receiptNumber}, err
	}

	if _, err = o.Orders.SetOrderProcessing(ctx, orderId, initiated.GatewayTxnId); err != nil {
		slog.ErrorContext(ctx, "failed to set order processing", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		// The order stays pending; reconciliation picks it up from the
		// gateway side, so the booking itself still stands.
	}

	err = common.PublishMessage(ctx, o.Publisher, constant.SubjectBookingCreated, model.BookingCreatedEventMessage{
		OrderId:       orderId,
		ExhibitionId:  req.ExhibitionId,
		ReceiptNumber: receiptNumber,
		StallIds:      req.StallIds,
		Amount:        amount,
		Name:          req.Name,
		Email:         req.Email,
		RedirectUrl:   initiated.RedirectUrl,
		ExpiredAt:     expiredAt.Format(time.RFC3339),
	})
	if err != nil {
		// Confirmation email is best effort, the booking succeeded.
		slog.ErrorContext(ctx, "failed to publish booking created message", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	}

	slog.InfoContext(ctx, "order created", traceIdAttr,
		slog.String("order_id", orderId), slog.String("receipt_number", receiptNumber))

	return model.CreateOrderResponse{
		OrderId:       orderId,
		ReceiptNumber: receiptNumber,
		RedirectUrl:   initiated.RedirectUrl,
	}, nil
}

func (o *BookingOrchestrator) releaseQuietly(ctx context.Context, orderId string) {
	if err := o.Inventory.Release(ctx, orderId); err != nil {
		slog.ErrorContext(ctx, "failed to release reservation",
			common.ExtractTraceIDFromCtx(ctx), slog.String("order_id", orderId), slog.Any(constant.LogFieldErr, err))
	}
}
