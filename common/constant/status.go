package constant

const (
	StallStatusAvailable   = "available"
	StallStatusReserved    = "reserved"
	StallStatusBooked      = "booked"
	StallStatusUnavailable = "unavailable"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusSuccess    = "success"
	PaymentStatusFailed     = "failed"
	PaymentStatusCancelled  = "cancelled"
)

const (
	HealthStatusHealthy  = "HEALTHY"
	HealthStatusWarning  = "WARNING"
	HealthStatusCritical = "CRITICAL"
)

// IsTerminalPaymentStatus reports whether a payment status permits no
// further transitions.
func IsTerminalPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}
