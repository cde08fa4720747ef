package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"stall-booking/booking"
	"stall-booking/common"
	"stall-booking/common/constant"
	"stall-booking/common/errs"
	"stall-booking/common/otel"
	"stall-booking/model"
	"stall-booking/outbound/postgres"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

type OrderHttp struct {
	Orchestrator *booking.BookingOrchestrator
	Reconciler   *booking.PaymentReconciler
	Querier      booking.OrderStore
	Cache        *redis.Client
	Validate     *validator.Validate
}

func RegisterOrderHttp(
	mux *http.ServeMux,
	orchestrator *booking.BookingOrchestrator,
	reconciler *booking.PaymentReconciler,
	querier booking.OrderStore,
	cache *redis.Client,
	validate *validator.Validate,
) *OrderHttp {
	in := &OrderHttp{
		Orchestrator: orchestrator,
		Reconciler:   reconciler,
		Querier:      querier,
		Cache:        cache,
		Validate:     validate,
	}

	mux.HandleFunc("POST /api/orders", in.create)
	mux.HandleFunc("POST /api/orders/{id}/verify", in.verify)
	mux.HandleFunc("GET /api/orders/{id}/status", in.status)

	return in
}

func (in OrderHttp) create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "OrderHttp.create")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "create order receive request", slog.Any(constant.LogFieldPayload, req), traceIdAttr)

	customerLock, err := in.Cache.SetNX(ctx, fmt.Sprintf(constant.OrderCustomerLock, req.Email), true, constant.OrderCustomerLockDefaultTTL).Result()
	if err != nil {
		slog.ErrorContext(ctx, "failed to set customer lock", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	if !customerLock {
		slog.DebugContext(ctx, "booking already in progress for customer", traceIdAttr)
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusConflict, Message: "A booking for this email is already in progress"})
		return
	}

	// The TTL only covers crashes; a finished request frees the customer
	// immediately.
	defer func() {
		if err := in.Cache.Del(ctx, fmt.Sprintf(constant.OrderCustomerLock, req.Email)).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to release customer lock", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		}
	}()

	resp, err := in.Orchestrator.CreateOrder(ctx, req)
	if err != nil {
		var gatewayErr *errs.GatewayError
		if errors.As(err, &gatewayErr) && resp.ReceiptNumber != "" {
			// Payment failures stay generic; the receipt number is the
			// support lookup handle.
			writeErrorResponse(w, &errs.HttpError{
				Code:    http.StatusBadGateway,
				Message: "Payment could not be initiated, please contact support with your receipt number",
				Data:    map[string]any{"receipt_number": resp.ReceiptNumber},
			})
			return
		}

		writeErrorResponse(w, err)
		return
	}

	slog.InfoContext(ctx, "create order success", traceIdAttr, slog.Any(constant.LogFieldResponse, resp))

	writeJSONResponse(w, http.StatusCreated, resp)
}

func (in OrderHttp) verify(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "OrderHttp.verify")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "verify order receive request", slog.String("order_id", r.PathValue("id")), traceIdAttr)

	key := req.TransactionId
	if key == "" {
		key = req.ReceiptNumber
	}

	status, err := in.Reconciler.VerifyPoll(ctx, key)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, model.VerifyOrderResponse{Status: status})
}

func (in OrderHttp) status(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "OrderHttp.status")
	defer span.End()

	order, err := in.Querier.FindOrderById(ctx, r.PathValue("id"))
	if errors.Is(err, pgx.ErrNoRows) {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusNotFound, Message: "Order not found"})
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to find order", common.ExtractTraceIDFromCtx(ctx), slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderStatusResponse(order))
}

func orderStatusResponse(order postgres.OrderRow) model.OrderStatusResponse {
	resp := model.OrderStatusResponse{
		OrderId:         order.ID,
		ExhibitionId:    order.ExhibitionID,
		ReceiptNumber:   order.ReceiptNumber,
		StallIds:        order.StallIDs,
		Amount:          order.Amount,
		PaymentStatus:   order.PaymentStatus,
		WebhookReceived: order.WebhookReceived,
	}

	if order.WebhookReceivedAt.Valid {
		resp.WebhookReceivedAt = order.WebhookReceivedAt.Time.Format(time.RFC3339)
	}
	if order.CreatedAt.Valid {
		resp.CreatedAt = order.CreatedAt.Time.Format(time.RFC3339)
	}

	return resp
}
