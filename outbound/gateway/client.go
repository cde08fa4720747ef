package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"stall-booking/common/errs"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	simulatedTxnPrefix = "SIM-"
	simulatedBaseUrl   = "https://simulated.gateway.invalid"
)

// Client talks to the payment provider over signed HTTP requests. In
// simulated mode it short-circuits deterministically and performs no
// outbound call.
type Client struct {
	mode         Mode
	baseUrl      string
	merchantKey  string
	merchantSalt string

	httpClient *http.Client
}

func New(cfg *viper.Viper) (*Client, error) {
	mode, err := ParseMode(cfg.GetString("gateway.mode"))
	if err != nil {
		return nil, err
	}

	c := &Client{
		mode: mode,
		httpClient: &http.Client{
			Timeout: cfg.GetDuration("gateway.timeout"),
		},
	}

	switch mode {
	case ModeSimulated:
		c.baseUrl = simulatedBaseUrl
	case ModeSandbox:
		c.baseUrl = cfg.GetString("gateway.sandbox.base_url")
		c.merchantKey = cfg.GetString("gateway.sandbox.merchant_key")
		c.merchantSalt = cfg.GetString("gateway.sandbox.merchant_salt")
	case ModeProduction:
		c.baseUrl = cfg.GetString("gateway.production.base_url")
		c.merchantKey = cfg.GetString("gateway.production.merchant_key")
		c.merchantSalt = cfg.GetString("gateway.production.merchant_salt")
	}

	if mode != ModeSimulated && (c.baseUrl == "" || c.merchantKey == "" || c.merchantSalt == "") {
		return nil, fmt.Errorf("gateway mode %s requires base_url, merchant_key and merchant_salt", mode)
	}

	return c, nil
}

func (c *Client) Mode() Mode { return c.mode }

func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	if c.mode == ModeSimulated {
		return InitiateResult{
			RedirectUrl:  simulatedBaseUrl + "/pay/" + req.ReceiptNumber,
			GatewayTxnId: simulatedTxnPrefix + req.ReceiptNumber,
		}, nil
	}

	form := url.Values{}
	form.Set("key", c.merchantKey)
	form.Set("txnid", req.OrderId)
	form.Set("receipt", req.ReceiptNumber)
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("firstname", req.Name)
	form.Set("email", req.Email)
	form.Set("phone", req.Phone)
	form.Set("hash", c.sign("/payment/initiate", req.OrderId, strconv.FormatInt(req.Amount, 10), req.ReceiptNumber, req.Email))

	var resp initiateResponse
	if err := c.postForm(ctx, "initiate", "/payment/initiate", form, &resp); err != nil {
		return InitiateResult{}, err
	}

	switch resp.Status {
	case "success", "pending":
		if resp.TxnId == "" || resp.RedirectUrl == "" {
			return InitiateResult{}, &errs.GatewayError{
				Kind: errs.GatewayErrorProtocol,
				Op:   "initiate",
				Err:  fmt.Errorf("response missing txn_id or redirect_url"),
			}
		}
		return InitiateResult{RedirectUrl: resp.RedirectUrl, GatewayTxnId: resp.TxnId}, nil
	case "auth_failed":
		return InitiateResult{}, &errs.GatewayError{
			Kind: errs.GatewayErrorAuth,
			Op:   "initiate",
			Err:  fmt.Errorf("provider rejected credentials: %s", resp.Message),
		}
	default:
		return InitiateResult{}, &errs.GatewayError{
			Kind: errs.GatewayErrorProtocol,
			Op:   "initiate",
			Err:  fmt.Errorf("unexpected provider status %q", resp.Status),
		}
	}
}

func (c *Client) Verify(ctx context.Context, key string) (VerifyResult, error) {
	if c.mode == ModeSimulated {
		txnId := key
		if !strings.HasPrefix(txnId, simulatedTxnPrefix) {
			txnId = simulatedTxnPrefix + key
		}
		return VerifyResult{Status: "success", GatewayTxnId: txnId}, nil
	}

	form := url.Values{}
	form.Set("key", c.merchantKey)
	form.Set("txnid", key)
	form.Set("hash", c.sign("/payment/verify", key))

	var resp verifyResponse
	if err := c.postForm(ctx, "verify", "/payment/verify", form, &resp); err != nil {
		return VerifyResult{}, err
	}

	switch resp.Status {
	case "success", "pending", "failed", "cancelled":
		return VerifyResult{Status: resp.Status, GatewayTxnId: resp.TxnId}, nil
	case "auth_failed":
		return VerifyResult{}, &errs.GatewayError{
			Kind: errs.GatewayErrorAuth,
			Op:   "verify",
			Err:  fmt.Errorf("provider rejected credentials: %s", resp.Message),
		}
	default:
		return VerifyResult{}, &errs.GatewayError{
			Kind: errs.GatewayErrorProtocol,
			Op:   "verify",
			Err:  fmt.Errorf("unexpected provider status %q", resp.Status),
		}
	}
}

type initiateResponse struct {
	Status      string `json:"status"`
	TxnId       string `json:"txn_id"`
	RedirectUrl string `json:"redirect_url"`
	Message     string `json:"message"`
}

type verifyResponse struct {
	Status  string `json:"status"`
	TxnId   string `json:"txn_id"`
	Message string `json:"message"`
}

// sign hashes the request fields together with the endpoint path and the
// shared merchant salt, pipe-joined, sha512 hex.
func (c *Client) sign(endpoint string, fields ...string) string {
	parts := append([]string{c.merchantKey}, fields...)
	parts = append(parts, endpoint, c.merchantSalt)

	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks a provider callback signature against the shared
// salt. In simulated mode every signature is accepted.
func (c *Client) VerifySignature(signature string, fields ...string) bool {
	if c.mode == ModeSimulated {
		return true
	}
	return signature == c.sign("/gateway/webhook", fields...)
}

func (c *Client) postForm(ctx context.Context, op, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &errs.GatewayError{Kind: errs.GatewayErrorProtocol, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errs.GatewayError{Kind: errs.GatewayErrorNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &errs.GatewayError{Kind: errs.GatewayErrorAuth, Op: op, Err: fmt.Errorf("provider returned %d", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return &errs.GatewayError{Kind: errs.GatewayErrorNetwork, Op: op, Err: fmt.Errorf("provider returned %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return &errs.GatewayError{Kind: errs.GatewayErrorProtocol, Op: op, Err: fmt.Errorf("provider returned %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errs.GatewayError{Kind: errs.GatewayErrorProtocol, Op: op, Err: err}
	}

	return nil
}
