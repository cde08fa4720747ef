package model

type CreateOrderRequest struct {
	ExhibitionId int64   `json:"exhibition_id" validate:"required"`
	StallIds     []int64 `json:"stall_ids" validate:"required,min=1,max=10,unique"`
	Name         string  `json:"name" validate:"required,max=100"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        string  `json:"phone" validate:"required"`
}

type CreateOrderResponse struct {
	OrderId       string `json:"order_id"`
	ReceiptNumber string `json:"receipt_number"`
	RedirectUrl   string `json:"redirect_url"`
}

type VerifyOrderRequest struct {
	TransactionId string `json:"transaction_id" validate:"required_without=ReceiptNumber"`
	ReceiptNumber string `json:"receipt_number" validate:"required_without=TransactionId"`
}

type VerifyOrderResponse struct {
	Status string `json:"status"`
}

type OrderStatusResponse struct {
	OrderId           string  `json:"order_id"`
	ExhibitionId      int64   `json:"exhibition_id"`
	ReceiptNumber     string  `json:"receipt_number"`
	StallIds          []int64 `json:"stall_ids"`
	Amount            int64   `json:"amount"`
	PaymentStatus     string  `json:"payment_status"`
	WebhookReceived   bool    `json:"webhook_received"`
	WebhookReceivedAt string  `json:"webhook_received_at,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

type BookingCreatedEventMessage struct {
	OrderId       string  `json:"order_id"`
	ExhibitionId  int64   `json:"exhibition_id"`
	ReceiptNumber string  `json:"receipt_number"`
	StallIds      []int64 `json:"stall_ids"`
	Amount        int64   `json:"amount"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	RedirectUrl   string  `json:"redirect_url"`
	ExpiredAt     string  `json:"expired_at"`
}

type PaymentCallbackEventMessage struct {
	ProviderEventId string `json:"provider_event_id"`
	TransactionId   string `json:"transaction_id"`
	ReceiptNumber   string `json:"receipt_number"`
	Status          string `json:"status"`
	OccurredAt      string `json:"occurred_at"`
}
