package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"stall-booking/common"
	"stall-booking/common/constant"
	"stall-booking/common/errs"
	"stall-booking/common/otel"
	"stall-booking/model"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
)

type SignatureVerifier interface {
	VerifySignature(signature string, fields ...string) bool
}

type WebhookStore interface {
	InsertWebhookEvent(ctx context.Context, providerEventID string, payload []byte) (pgconn.CommandTag, error)
}

// PaymentHttp receives gateway callbacks. The provider gets a 200 no matter
// what happens internally; failures are recorded for operator follow-up
// instead of provoking redelivery storms.
type PaymentHttp struct {
	Cache     *redis.Client
	Querier   WebhookStore
	Publisher jetstream.Publisher
	Verifier  SignatureVerifier
	Validate  *validator.Validate
}

func RegisterPaymentHttp(
	mux *http.ServeMux,
	cache *redis.Client,
	querier WebhookStore,
	publisher jetstream.Publisher,
	verifier SignatureVerifier,
	validate *validator.Validate,
) *PaymentHttp {
	in := &PaymentHttp{
		Cache:     cache,
		Querier:   querier,
		Publisher: publisher,
		Verifier:  verifier,
		Validate:  validate,
	}

	mux.HandleFunc("POST /api/gateway/webhook", in.callback)

	return in
}

func (in PaymentHttp) callback(w http.ResponseWriter, r *http.Request) {
	var req model.GatewayWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Malformed callbacks are the one case the provider should see fail.
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		// Unprocessable payloads are acknowledged; redelivery cannot fix them.
		slog.WarnContext(r.Context(), "gateway callback payload failed validation", slog.Any(constant.LogFieldErr, err))
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "PaymentHttp.callback")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "gateway callback receive request", slog.Any(constant.LogFieldPayload, req), traceIdAttr)

	if !in.Verifier.VerifySignature(req.Signature, req.TransactionId, req.Status, strconv.FormatInt(req.Amount, 10)) {
		slog.WarnContext(ctx, "gateway callback signature mismatch", traceIdAttr)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Fast-path dedupe; the webhook_events insert below stays authoritative.
	firstSeen, err := in.Cache.SetNX(ctx, fmt.Sprintf(constant.WebhookEventLock, req.EventId), true, constant.WebhookEventLockDefaultTTL).Result()
	if err != nil {
		slog.ErrorContext(ctx, "failed to set webhook event lock", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		firstSeen = true
	}

	if !firstSeen {
		slog.DebugContext(ctx, "duplicate webhook event, cache hit", traceIdAttr, slog.String("event_id", req.EventId))
		w.WriteHeader(http.StatusOK)
		return
	}

	payload, err := json.Marshal(req)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal webhook payload", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		w.WriteHeader(http.StatusOK)
		return
	}

	cmd, err := in.Querier.InsertWebhookEvent(ctx, req.EventId, payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to record webhook event", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		w.WriteHeader(http.StatusOK)
		return
	}

	if cmd.RowsAffected() == 0 {
		slog.DebugContext(ctx, "duplicate webhook event, already recorded", traceIdAttr, slog.String("event_id", req.EventId))
		w.WriteHeader(http.StatusOK)
		return
	}

	err = common.PublishMessage(ctx, in.Publisher, constant.SubjectPaymentCallback, model.PaymentCallbackEventMessage{
		ProviderEventId: req.EventId,
		TransactionId:   req.TransactionId,
		ReceiptNumber:   req.ReceiptNumber,
		Status:          req.Status,
		OccurredAt:      req.OccurredAt,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish payment callback message", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	}

	w.WriteHeader(http.StatusOK)
}
