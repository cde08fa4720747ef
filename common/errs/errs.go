package errs

import (
	"errors"
	"fmt"
)

type HttpError struct {
	Code    int
	Message string
	Data    any
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("code %d: %s, data: %v", e.Code, e.Message, e.Data)
}

// ErrStorageUnavailable means a durable storage operation could not be
// performed. Callers must abort without persisting partial state.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StallConflictError is returned when a reservation cannot take all requested
// stalls. Unavailable lists the stalls that blocked the reservation.
type StallConflictError struct {
	Unavailable []int64
}

func (e *StallConflictError) Error() string {
	return fmt.Sprintf("stalls unavailable: %v", e.Unavailable)
}

type GatewayErrorKind int

const (
	GatewayErrorNetwork GatewayErrorKind = iota
	GatewayErrorAuth
	GatewayErrorProtocol
)

func (k GatewayErrorKind) String() string {
	switch k {
	case GatewayErrorNetwork:
		return "network"
	case GatewayErrorAuth:
		return "auth"
	case GatewayErrorProtocol:
		return "protocol"
	}
	return "unknown"
}

// GatewayError classifies a payment gateway failure. Network errors are
// retryable by the caller, auth and protocol errors are not.
type GatewayError struct {
	Kind GatewayErrorKind
	Op   string
	Err  error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func (e *GatewayError) Retryable() bool { return e.Kind == GatewayErrorNetwork }

// ReconciliationConflictError means a terminal payment result arrived for an
// order that already holds a different terminal state. The recorded state is
// never overwritten; the conflict is surfaced for manual review.
type ReconciliationConflictError struct {
	OrderId   string
	Recorded  string
	Attempted string
}

func (e *ReconciliationConflictError) Error() string {
	return fmt.Sprintf("order %s already finalized as %s, rejected %s", e.OrderId, e.Recorded, e.Attempted)
}
