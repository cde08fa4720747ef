package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stall-booking/common/constant"
	"stall-booking/outbound/postgres"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redismock/v9"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	jetstreamMocks "stall-booking/common/jetstream/mocks"
)

type stubVerifier struct {
	ok bool
}

func (v stubVerifier) VerifySignature(string, ...string) bool { return v.ok }

type PaymentHttpTestSuite struct {
	suite.Suite

	Ctrl      *gomock.Controller
	PgxMock   pgxmock.PgxPoolIface
	RedisMock redismock.ClientMock
	Publisher *jetstreamMocks.MockPublisher

	mux      *http.ServeMux
	verifier *stubVerifier
}

func (s *PaymentHttpTestSuite) SetupTest() {
	s.Ctrl = gomock.NewController(s.T())
	s.Publisher = jetstreamMocks.NewMockPublisher(s.Ctrl)

	pool, err := pgxmock.NewPool()
	if err != nil {
		s.T().Fatalf("failed to create pgxmock pool: %v", err)
	}
	s.PgxMock = pool

	cache, redisMock := redismock.NewClientMock()
	s.RedisMock = redisMock

	s.verifier = &stubVerifier{ok: true}
	s.mux = http.NewServeMux()
	RegisterPaymentHttp(s.mux, cache, postgres.New(pool), s.Publisher, s.verifier, validator.New())

	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func (s *PaymentHttpTestSuite) TearDownTest() {
	s.PgxMock.Close()
	s.Ctrl.Finish()
}

func TestPaymentHttpTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentHttpTestSuite))
}

const webhookBody = `{
	"event_id": "evt_1",
	"transaction_id": "pg_txn_1",
	"receipt_number": "EXH-7-1",
	"status": "success",
	"amount": 12500,
	"signature": "sig",
	"occurred_at": "2026-03-01T10:00:00Z"
}`

func (s *PaymentHttpTestSuite) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/gateway/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *PaymentHttpTestSuite) expectEventLock(eventId string, firstSeen bool) {
	s.RedisMock.ExpectSetNX(
		fmt.Sprintf(constant.WebhookEventLock, eventId), true, constant.WebhookEventLockDefaultTTL,
	).SetVal(firstSeen)
}

func (s *PaymentHttpTestSuite) TestCallback() {
	s.Run("malformed body is the only rejected case", func() {
		rec := s.post(`{"event_id":`)

		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("missing event id is acknowledged and dropped", func() {
		rec := s.post(`{"transaction_id": "pg_txn_1", "status": "success"}`)

		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("status outside the provider enum is acknowledged and dropped", func() {
		rec := s.post(`{"event_id": "evt_9", "transaction_id": "pg_txn_9", "status": "refunded", "amount": 12500, "signature": "sig"}`)

		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("signature mismatch is acknowledged and dropped", func() {
		s.verifier.ok = false

		rec := s.post(webhookBody)

		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("duplicate event id, cache hit", func() {
		s.SetupTest()
		s.expectEventLock("evt_1", false)

		rec := s.post(webhookBody)

		s.Equal(http.StatusOK, rec.Code)
		s.NoError(s.RedisMock.ExpectationsWereMet())
	})

	s.Run("duplicate event id, already recorded", func() {
		s.SetupTest()
		s.expectEventLock("evt_1", true)
		s.PgxMock.ExpectExec("INSERT INTO webhook_events").
			WithArgs("evt_1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		rec := s.post(webhookBody)

		s.Equal(http.StatusOK, rec.Code)
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})

	s.Run("cache failure falls through to the authoritative insert", func() {
		s.SetupTest()
		s.RedisMock.ExpectSetNX(
			fmt.Sprintf(constant.WebhookEventLock, "evt_1"), true, constant.WebhookEventLockDefaultTTL,
		).SetErr(errors.New("redis down"))
		s.PgxMock.ExpectExec("INSERT INTO webhook_events").
			WithArgs("evt_1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		s.Publisher.EXPECT().
			Publish(gomock.Any(), constant.SubjectPaymentCallback, gomock.Any()).
			Return(&jetstream.PubAck{}, nil)

		rec := s.post(webhookBody)

		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("storage failure is still acknowledged", func() {
		s.SetupTest()
		s.expectEventLock("evt_1", true)
		s.PgxMock.ExpectExec("INSERT INTO webhook_events").
			WithArgs("evt_1", pgxmock.AnyArg()).
			WillReturnError(errors.New("connection refused"))

		rec := s.post(webhookBody)

		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("publish failure is still acknowledged", func() {
		s.SetupTest()
		s.expectEventLock("evt_1", true)
		s.PgxMock.ExpectExec("INSERT INTO webhook_events").
			WithArgs("evt_1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		s.Publisher.EXPECT().
			Publish(gomock.Any(), constant.SubjectPaymentCallback, gomock.Any()).
			Return(nil, errors.New("nats unreachable"))

		rec := s.post(webhookBody)

		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("first delivery is recorded and dispatched", func() {
		s.SetupTest()
		s.expectEventLock("evt_1", true)
		s.PgxMock.ExpectExec("INSERT INTO webhook_events").
			WithArgs("evt_1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		s.Publisher.EXPECT().
			Publish(gomock.Any(), constant.SubjectPaymentCallback, gomock.Any()).
			Return(&jetstream.PubAck{}, nil)

		rec := s.post(webhookBody)

		s.Equal(http.StatusOK, rec.Code)
		s.NoError(s.PgxMock.ExpectationsWereMet())
		s.NoError(s.RedisMock.ExpectationsWereMet())
	})
}
