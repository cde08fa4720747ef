package constant

import "time"

const (
	ExhibitionAvailableStallsKey = "exhibition:%d:stalls_available"
	OrderCustomerLock            = "order:customer_lock:%s"
	WebhookEventLock             = "webhook:event_lock:%s"
)

const (
	OrderCustomerLockDefaultTTL = 1 * time.Minute
	WebhookEventLockDefaultTTL  = 24 * time.Hour
)
