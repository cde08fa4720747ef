package cmd

import (
	"context"
	"log"
	"log/slog"
	"stall-booking/booking"
	"stall-booking/common/constant"
	inboundEvent "stall-booking/inbound/event"
	"stall-booking/outbound/notifier"
	"stall-booking/outbound/postgres"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func runQueueBookingCmd(ctx context.Context) {
	cfg := newCfg("env")

	db := newDb(cfg)
	defer db.Close()

	querier := postgres.New(db)

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createStreamWorkQueue(ctx, js)

	st, err := js.Stream(ctx, constant.QueueStreamName)
	if err != nil {
		log.Fatalln("failed to get stream", err)
	}

	gatewayClient := newGateway(cfg)
	inventory := &booking.StallInventory{Db: db, Querier: querier, TimeNow: time.Now}

	reconciler := &booking.PaymentReconciler{
		Orders:    querier,
		Inventory: inventory,
		Gateway:   gatewayClient,
		Notifier:  &notifier.QueueNotifier{Publisher: js, Recipient: cfg.GetString("monitor.alert_email")},
		TimeNow:   time.Now,
	}

	bookingEvent := inboundEvent.BookingEvent{
		Reconciler:   reconciler,
		Orders:       querier,
		Webhooks:     querier,
		Publisher:    js,
		InrFormatter: message.NewPrinter(language.English),
		Timeout:      cfg.GetDuration("queue.booking.timeout"),
	}

	cons, err := st.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       "consumer:booking",
		FilterSubject: constant.BookingWildcard,
		MaxDeliver:    cfg.GetInt("queue.booking.max_deliver"),
		AckWait:       cfg.GetDuration("queue.booking.ack_wait"),
	})
	if err != nil {
		log.Fatalln("failed to create consumer", err)
	}

	iter, err := cons.Messages()
	if err != nil {
		panic(err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := iter.Next()
				if err != nil && err != jetstream.ErrMsgIteratorClosed {
					slog.ErrorContext(ctx, "Error fetching message", slog.Any(constant.LogFieldErr, err))
					continue
				}

				if msg == nil {
					continue
				}

				var eventErr error
				switch msg.Subject() {
				case constant.SubjectBookingCreated:
					eventErr = bookingEvent.CreatedHandler(ctx, msg.Data())
				case constant.SubjectPaymentCallback:
					eventErr = bookingEvent.CallbackHandler(ctx, msg.Data())
				}

				if eventErr != nil {
					msg.NakWithDelay(1 * time.Second)
					continue
				}

				if err := msg.Ack(); err != nil {
					slog.ErrorContext(ctx, "Error acknowledging message",
						slog.Any(constant.LogFieldErr, err),
						slog.Any(constant.LogFieldPayload, string(msg.Data())),
						slog.String("subject", msg.Subject()),
					)
					continue
				}
			}
		}
	}()

	slog.InfoContext(ctx, "booking queue consumer started")

	<-ctx.Done()

	iter.Stop()

	slog.InfoContext(ctx, "booking queue consumer stopped")
}
