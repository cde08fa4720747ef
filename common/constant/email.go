package constant

const EmailBookingConfirmationTemplate = `
Dear %s,

Thank you for booking a stall at our exhibition! Your booking has been successfully created.

Booking Details:
------------------------------------------
Receipt Number: %s
Stalls: %s
Total Amount: %s
------------------------------------------

Please complete your payment before: %s

Payment Instructions:
1. Open the payment link below to complete your payment
   %s
2. Complete the payment within the time limit to secure your stalls
3. You will receive a confirmation email once payment is processed

If you have any questions or need assistance, please contact our support team
at support@stall-booking.com quoting your receipt number.

Best regards,
Exhibition Stall Booking Team

Note: This is an automated message, please do not reply to this email.
`

const EmailPaymentSuccessTemplate = `
Dear %s,

Great news! Your payment has been successfully processed and your stalls are now booked.

Booking Details:
------------------------------------------
Receipt Number: %s
Stalls: %s
Total Amount: %s
------------------------------------------

Please keep your receipt number for check-in at the exhibition venue.

Best regards,
Exhibition Stall Booking Team

Note: This is an automated message, please do not reply to this email.
`

const EmailPaymentFailedTemplate = `
Dear %s,

Unfortunately your payment could not be completed and your stall booking has been released.

Booking Details:
------------------------------------------
Receipt Number: %s
Stalls: %s
------------------------------------------

The stalls are available for booking again. If the amount was deducted from
your account, please contact our support team at support@stall-booking.com
quoting your receipt number.

Best regards,
Exhibition Stall Booking Team

Note: This is an automated message, please do not reply to this email.
`

const EmailHealthAlertTemplate = `
Booking platform health alert.

Status: %s
Stuck pending orders: %d
Webhook success rate: %.2f%% (over %d orders)
Checked at: %s

Please review the reconciliation backlog and the payment gateway delivery logs.
`
