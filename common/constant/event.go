package constant

const (
	QueueStreamName = "stall_booking_queue_stream"
)

const (
	AllWildcard     = "events.>"
	BookingWildcard = "events.booking.>"
	EmailWildcard   = "events.email.>"

	SubjectBookingCreated  = "events.booking.created"
	SubjectPaymentCallback = "events.booking.payment_callback"
	SubjectSendEmail       = "events.email.send"
)
