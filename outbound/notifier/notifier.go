// Package notifier decouples alerting from the monitoring and reconciliation
// core: callers get an injected interface, delivery rides the email queue.
package notifier

import (
	"context"
	"stall-booking/common"
	"stall-booking/common/constant"
	"stall-booking/model"

	"github.com/nats-io/nats.go/jetstream"
)

type Notifier interface {
	Alert(ctx context.Context, subject string, body string) error
}

// QueueNotifier publishes alerts to the email send subject, from where the
// email consumer delivers them to the operator address.
type QueueNotifier struct {
	Publisher jetstream.Publisher
	Recipient string
}

func (n *QueueNotifier) Alert(ctx context.Context, subject string, body string) error {
	return common.PublishMessage(ctx, n.Publisher, constant.SubjectSendEmail, model.SendEmailEventMessage{
		To:      n.Recipient,
		Subject: subject,
		Body:    body,
	})
}
