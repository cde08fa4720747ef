package model

type GatewayWebhookRequest struct {
	EventId       string `json:"event_id" validate:"required"`
	TransactionId string `json:"transaction_id" validate:"required"`
	ReceiptNumber string `json:"receipt_number"`
	Status        string `json:"status" validate:"required,oneof=success failed cancelled pending"`
	Amount        int64  `json:"amount"`
	Signature     string `json:"signature"`
	OccurredAt    string `json:"occurred_at"`
}

type HealthReport struct {
	Status             string  `json:"status"`
	StuckOrders        int64   `json:"stuck_orders"`
	WebhookSuccessRate float64 `json:"webhook_success_rate"`
	WindowOrders       int64   `json:"window_orders"`
	CheckedAt          string  `json:"checked_at"`
}
