package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stall-booking/common/errs"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
)

type ClientTestSuite struct {
	suite.Suite
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func sandboxConfig(baseUrl string) *viper.Viper {
	cfg := viper.New()
	cfg.Set("gateway.mode", "sandbox")
	cfg.Set("gateway.timeout", "2s")
	cfg.Set("gateway.sandbox.base_url", baseUrl)
	cfg.Set("gateway.sandbox.merchant_key", "mk_test")
	cfg.Set("gateway.sandbox.merchant_salt", "salt_test")
	return cfg
}

// failingTransport fails every request, proving a code path performs no
// outbound call.
type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("outbound call attempted")
}

func (s *ClientTestSuite) TestParseMode() {
	testCases := []struct {
		input       string
		expected    Mode
		expectedErr bool
	}{
		{input: "simulated", expected: ModeSimulated},
		{input: "sandbox", expected: ModeSandbox},
		{input: "production", expected: ModeProduction},
		{input: "prod", expectedErr: true},
		{input: "", expectedErr: true},
	}

	for _, tc := range testCases {
		s.Run(tc.input, func() {
			mode, err := ParseMode(tc.input)

			if tc.expectedErr {
				s.Require().Error(err)
				return
			}

			s.Require().NoError(err)
			s.Equal(tc.expected, mode)
		})
	}
}

func (s *ClientTestSuite) TestNew() {
	s.Run("simulated needs no credentials", func() {
		cfg := viper.New()
		cfg.Set("gateway.mode", "simulated")

		client, err := New(cfg)

		s.Require().NoError(err)
		s.Equal(ModeSimulated, client.Mode())
	})

	s.Run("sandbox without credentials is rejected", func() {
		cfg := viper.New()
		cfg.Set("gateway.mode", "sandbox")
		cfg.Set("gateway.sandbox.base_url", "https://sandbox.example.com")

		_, err := New(cfg)

		s.Require().Error(err)
	})

	s.Run("unknown mode is rejected", func() {
		cfg := viper.New()
		cfg.Set("gateway.mode", "live")

		_, err := New(cfg)

		s.Require().Error(err)
	})
}

func (s *ClientTestSuite) TestSimulatedMode() {
	cfg := viper.New()
	cfg.Set("gateway.mode", "simulated")

	client, err := New(cfg)
	s.Require().NoError(err)

	client.httpClient.Transport = failingTransport{}

	s.Run("initiate is deterministic and offline", func() {
		result, err := client.Initiate(context.Background(), InitiateRequest{
			OrderId:       "ord_1",
			ReceiptNumber: "EXH-7-1",
			Amount:        12500,
		})

		s.Require().NoError(err)
		s.Equal("SIM-EXH-7-1", result.GatewayTxnId)
		s.Equal("https://simulated.gateway.invalid/pay/EXH-7-1", result.RedirectUrl)
	})

	s.Run("verify always succeeds offline", func() {
		result, err := client.Verify(context.Background(), "EXH-7-1")

		s.Require().NoError(err)
		s.Equal("success", result.Status)
		s.Equal("SIM-EXH-7-1", result.GatewayTxnId)
	})

	s.Run("verify keeps an existing txn prefix", func() {
		result, err := client.Verify(context.Background(), "SIM-EXH-7-1")

		s.Require().NoError(err)
		s.Equal("SIM-EXH-7-1", result.GatewayTxnId)
	})

	s.Run("every webhook signature is accepted", func() {
		s.True(client.VerifySignature("not-a-real-signature", "evt_1", "SIM-EXH-7-1"))
	})
}

func (s *ClientTestSuite) TestInitiate() {
	req := InitiateRequest{
		OrderId:       "ord_1",
		ReceiptNumber: "EXH-7-1",
		Amount:        12500,
		Name:          "Asha Rao",
		Email:         "asha@example.com",
		Phone:         "9800000001",
	}

	s.Run("success carries the provider redirect", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.Require().NoError(r.ParseForm())
			s.Equal("mk_test", r.PostForm.Get("key"))
			s.Equal("ord_1", r.PostForm.Get("txnid"))
			s.Equal("12500", r.PostForm.Get("amount"))
			s.NotEmpty(r.PostForm.Get("hash"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"success","txn_id":"pg_txn_1","redirect_url":"https://pay.example.com/pg_txn_1"}`))
		}))
		defer server.Close()

		client, err := New(sandboxConfig(server.URL))
		s.Require().NoError(err)

		result, err := client.Initiate(context.Background(), req)

		s.Require().NoError(err)
		s.Equal("pg_txn_1", result.GatewayTxnId)
		s.Equal("https://pay.example.com/pg_txn_1", result.RedirectUrl)
	})

	s.Run("missing redirect is a protocol error", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"success","txn_id":"pg_txn_1"}`))
		}))
		defer server.Close()

		client, err := New(sandboxConfig(server.URL))
		s.Require().NoError(err)

		_, err = client.Initiate(context.Background(), req)

		var gwErr *errs.GatewayError
		s.Require().ErrorAs(err, &gwErr)
		s.Equal(errs.GatewayErrorProtocol, gwErr.Kind)
		s.False(gwErr.Retryable())
	})

	s.Run("auth_failed status maps to an auth error", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"auth_failed","message":"bad key"}`))
		}))
		defer server.Close()

		client, err := New(sandboxConfig(server.URL))
		s.Require().NoError(err)

		_, err = client.Initiate(context.Background(), req)

		var gwErr *errs.GatewayError
		s.Require().ErrorAs(err, &gwErr)
		s.Equal(errs.GatewayErrorAuth, gwErr.Kind)
	})
}

func (s *ClientTestSuite) TestPostFormErrorClassification() {
	testCases := []struct {
		name         string
		handler      http.HandlerFunc
		expectedKind errs.GatewayErrorKind
		retryable    bool
	}{
		{
			name: "5xx is a network error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			expectedKind: errs.GatewayErrorNetwork,
			retryable:    true,
		},
		{
			name: "401 is an auth error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			expectedKind: errs.GatewayErrorAuth,
		},
		{
			name: "unexpected 4xx is a protocol error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			},
			expectedKind: errs.GatewayErrorProtocol,
		},
		{
			name: "malformed body is a protocol error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>not json</html>`))
			},
			expectedKind: errs.GatewayErrorProtocol,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			client, err := New(sandboxConfig(server.URL))
			s.Require().NoError(err)

			_, err = client.Verify(context.Background(), "pg_txn_1")

			var gwErr *errs.GatewayError
			s.Require().ErrorAs(err, &gwErr)
			s.Equal(tc.expectedKind, gwErr.Kind)
			s.Equal(tc.retryable, gwErr.Retryable())
		})
	}

	s.Run("unreachable provider is a network error", func() {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		client, err := New(sandboxConfig(server.URL))
		s.Require().NoError(err)

		_, err = client.Verify(context.Background(), "pg_txn_1")

		var gwErr *errs.GatewayError
		s.Require().ErrorAs(err, &gwErr)
		s.Equal(errs.GatewayErrorNetwork, gwErr.Kind)
		s.True(gwErr.Retryable())
	})
}

func (s *ClientTestSuite) TestVerify() {
	for _, status := range []string{"success", "pending", "failed", "cancelled"} {
		s.Run(status, func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"status":"` + status + `","txn_id":"pg_txn_1"}`))
			}))
			defer server.Close()

			client, err := New(sandboxConfig(server.URL))
			s.Require().NoError(err)

			result, err := client.Verify(context.Background(), "pg_txn_1")

			s.Require().NoError(err)
			s.Equal(status, result.Status)
			s.Equal("pg_txn_1", result.GatewayTxnId)
		})
	}
}

func (s *ClientTestSuite) TestVerifySignature() {
	client, err := New(sandboxConfig("https://sandbox.example.com"))
	s.Require().NoError(err)

	fields := []string{"evt_1", "pg_txn_1", "EXH-7-1", "success", "12500"}

	parts := append([]string{"mk_test"}, fields...)
	parts = append(parts, "/gateway/webhook", "salt_test")
	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	valid := hex.EncodeToString(sum[:])

	s.True(client.VerifySignature(valid, fields...))
	s.False(client.VerifySignature("tampered", fields...))
	s.False(client.VerifySignature(valid, "evt_2", "pg_txn_1", "EXH-7-1", "success", "12500"))
}
