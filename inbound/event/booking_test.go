package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"stall-booking/booking"
	"stall-booking/common/constant"
	"stall-booking/model"
	"stall-booking/outbound/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	jetstreamMocks "stall-booking/common/jetstream/mocks"
)

type BookingEventTestSuite struct {
	suite.Suite

	Ctrl      *gomock.Controller
	PgxMock   pgxmock.PgxPoolIface
	Publisher *jetstreamMocks.MockPublisher

	handler BookingEvent
	now     time.Time
}

func (s *BookingEventTestSuite) SetupTest() {
	s.Ctrl = gomock.NewController(s.T())
	s.Publisher = jetstreamMocks.NewMockPublisher(s.Ctrl)

	pool, err := pgxmock.NewPool()
	if err != nil {
		s.T().Fatalf("failed to create pgxmock pool: %v", err)
	}
	s.PgxMock = pool

	s.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	querier := postgres.New(pool)
	reconciler := &booking.PaymentReconciler{
		Orders:    querier,
		Inventory: &booking.StallInventory{Db: pool, Querier: querier, TimeNow: func() time.Time { return s.now }},
		TimeNow:   func() time.Time { return s.now },
	}

	s.handler = BookingEvent{
		Reconciler:   reconciler,
		Orders:       querier,
		Webhooks:     querier,
		Publisher:    s.Publisher,
		InrFormatter: message.NewPrinter(language.English),
		Timeout:      5 * time.Second,
	}

	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func (s *BookingEventTestSuite) TearDownTest() {
	s.PgxMock.Close()
	s.Ctrl.Finish()
}

func TestBookingEventTestSuite(t *testing.T) {
	suite.Run(t, new(BookingEventTestSuite))
}

var bookingEventOrderColumns = []string{
	"id", "exhibition_id", "receipt_number", "stall_ids", "amount", "payment_status",
	"gateway_txn_id", "webhook_received", "webhook_received_at", "name", "email", "created_at",
}

func (s *BookingEventTestSuite) orderRow(paymentStatus string) *pgxmock.Rows {
	return pgxmock.NewRows(bookingEventOrderColumns).
		AddRow("ord_1", int64(7), "EXH-7-1", []int64{12, 13}, int64(12500), paymentStatus,
			pgtype.Text{String: "pg_txn_1", Valid: true}, false, pgtype.Timestamp{},
			"Asha Rao", "asha@example.com", pgtype.Timestamp{Time: s.now, Valid: true})
}

func (s *BookingEventTestSuite) TestCreatedHandler() {
	req := model.BookingCreatedEventMessage{
		OrderId:       "ord_1",
		ExhibitionId:  7,
		ReceiptNumber: "EXH-7-1",
		StallIds:      []int64{12, 13},
		Amount:        12500,
		Name:          "Asha Rao",
		Email:         "asha@example.com",
		RedirectUrl:   "https://pay.example.com/pg_txn_1",
		ExpiredAt:     "2026-03-01T10:10:00Z",
	}
	msg, err := json.Marshal(req)
	s.Require().NoError(err)

	s.Run("publishes the confirmation email", func() {
		s.Publisher.EXPECT().
			Publish(gomock.Any(), constant.SubjectSendEmail, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
				var email model.SendEmailEventMessage
				s.Require().NoError(json.Unmarshal(payload, &email))
				s.Equal("asha@example.com", email.To)
				s.Equal("Stall Booking Confirmation", email.Subject)
				s.Contains(email.Body, "EXH-7-1")
				s.Contains(email.Body, "S-12, S-13")
				s.Contains(email.Body, "INR 12,500")
				return &jetstream.PubAck{}, nil
			})

		s.NoError(s.handler.CreatedHandler(context.Background(), msg))
	})

	s.Run("malformed message is dropped", func() {
		s.NoError(s.handler.CreatedHandler(context.Background(), []byte(`{"order_id":`)))
	})

	s.Run("publish failure requeues the message", func() {
		s.Publisher.EXPECT().
			Publish(gomock.Any(), constant.SubjectSendEmail, gomock.Any()).
			Return(nil, errors.New("nats unreachable"))

		s.Error(s.handler.CreatedHandler(context.Background(), msg))
	})
}

func (s *BookingEventTestSuite) callbackMessage(status string) []byte {
	msg, err := json.Marshal(model.PaymentCallbackEventMessage{
		ProviderEventId: "evt_1",
		TransactionId:   "pg_txn_1",
		ReceiptNumber:   "EXH-7-1",
		Status:          status,
		OccurredAt:      "2026-03-01T10:00:00Z",
	})
	s.Require().NoError(err)
	return msg
}

func (s *BookingEventTestSuite) expectMarkProcessed() {
	s.PgxMock.ExpectExec("UPDATE webhook_events").
		WithArgs("evt_1", "ord_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
}

func (s *BookingEventTestSuite) expectOutcomeEmail(subject string) {
	s.Publisher.EXPECT().
		Publish(gomock.Any(), constant.SubjectSendEmail, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
			var email model.SendEmailEventMessage
			s.Require().NoError(json.Unmarshal(payload, &email))
			s.Equal(subject, email.Subject)
			return &jetstream.PubAck{}, nil
		})
}

func (s *BookingEventTestSuite) TestCallbackHandler() {
	s.Run("malformed message is dropped", func() {
		s.NoError(s.handler.CallbackHandler(context.Background(), []byte(`{"status":`)))
	})

	s.Run("unknown order is acked", func() {
		s.PgxMock.ExpectQuery("SELECT").WithArgs("pg_txn_1").WillReturnError(pgx.ErrNoRows)
		s.PgxMock.ExpectQuery("SELECT").WithArgs("EXH-7-1").WillReturnError(pgx.ErrNoRows)

		s.NoError(s.handler.CallbackHandler(context.Background(), s.callbackMessage("success")))
	})

	s.Run("lookup failure requeues the message", func() {
		s.SetupTest()
		s.PgxMock.ExpectQuery("SELECT").WithArgs("pg_txn_1").
			WillReturnError(errors.New("connection refused"))

		s.Error(s.handler.CallbackHandler(context.Background(), s.callbackMessage("success")))
	})

	s.Run("success finalizes, books and emails", func() {
		s.SetupTest()
		s.PgxMock.ExpectQuery("SELECT").WithArgs("pg_txn_1").
			WillReturnRows(s.orderRow(constant.PaymentStatusProcessing))
		s.PgxMock.ExpectExec("UPDATE orders").
			WithArgs("ord_1", constant.PaymentStatusSuccess, true, pgtype.Timestamp{Time: s.now, Valid: true}).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		s.PgxMock.ExpectExec("UPDATE stalls").
			WithArgs("ord_1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 2))
		s.expectMarkProcessed()
		s.expectOutcomeEmail("Stall Booking Payment Received")

		s.NoError(s.handler.CallbackHandler(context.Background(), s.callbackMessage("success")))
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})

	s.Run("failure finalizes, releases and emails", func() {
		s.SetupTest()
		s.PgxMock.ExpectQuery("SELECT").WithArgs("pg_txn_1").
			WillReturnRows(s.orderRow(constant.PaymentStatusProcessing))
		s.PgxMock.ExpectExec("UPDATE orders").
			WithArgs("ord_1", constant.PaymentStatusFailed, true, pgtype.Timestamp{Time: s.now, Valid: true}).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		s.PgxMock.ExpectExec("UPDATE stalls").
			WithArgs("ord_1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 2))
		s.expectMarkProcessed()
		s.expectOutcomeEmail("Stall Booking Released")

		s.NoError(s.handler.CallbackHandler(context.Background(), s.callbackMessage("failed")))
	})

	s.Run("conflicting redelivery is acked without an email", func() {
		s.SetupTest()
		s.PgxMock.ExpectQuery("SELECT").WithArgs("pg_txn_1").
			WillReturnRows(s.orderRow(constant.PaymentStatusProcessing))
		s.PgxMock.ExpectExec("UPDATE orders").
			WithArgs("ord_1", constant.PaymentStatusFailed, true, pgtype.Timestamp{Time: s.now, Valid: true}).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		s.PgxMock.ExpectQuery("SELECT").WithArgs("ord_1").
			WillReturnRows(s.orderRow(constant.PaymentStatusSuccess))
		s.expectMarkProcessed()

		s.NoError(s.handler.CallbackHandler(context.Background(), s.callbackMessage("failed")))
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})

	s.Run("finalize storage failure requeues the message", func() {
		s.SetupTest()
		s.PgxMock.ExpectQuery("SELECT").WithArgs("pg_txn_1").
			WillReturnRows(s.orderRow(constant.PaymentStatusProcessing))
		s.PgxMock.ExpectExec("UPDATE orders").
			WithArgs("ord_1", constant.PaymentStatusSuccess, true, pgtype.Timestamp{Time: s.now, Valid: true}).
			WillReturnError(errors.New("connection refused"))

		s.Error(s.handler.CallbackHandler(context.Background(), s.callbackMessage("success")))
	})
}
