// Package gateway normalizes calls to the external payment provider across
// simulated, sandbox and production modes. The mode is resolved once from
// config at startup, never inferred per request.
package gateway

import (
	"context"
	"fmt"
)

type Mode int

const (
	ModeSimulated Mode = iota
	ModeSandbox
	ModeProduction
)

func (m Mode) String() string {
	switch m {
	case ModeSimulated:
		return "simulated"
	case ModeSandbox:
		return "sandbox"
	case ModeProduction:
		return "production"
	}
	return "unknown"
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "simulated":
		return ModeSimulated, nil
	case "sandbox":
		return ModeSandbox, nil
	case "production":
		return ModeProduction, nil
	}
	return 0, fmt.Errorf("unknown gateway mode %q", s)
}

type InitiateRequest struct {
	OrderId       string
	ReceiptNumber string
	Amount        int64
	Name          string
	Email         string
	Phone         string
}

type InitiateResult struct {
	RedirectUrl  string
	GatewayTxnId string
}

type VerifyResult struct {
	Status       string
	GatewayTxnId string
}

type PaymentGateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error)
	Verify(ctx context.Context, key string) (VerifyResult, error)
}
