package service

import (
	"context"

	"github.com/lztpay/lztpay/internal/domain/payment"
)

// Notifier publishes confirmed payments to downstream consumers. Delivery is
// at least once; consumers dedupe by payment id.
type Notifier interface {
	PublishConfirmation(ctx context.Context, c payment.Confirmation) error
}

// NoopNotifier drops every event.
type NoopNotifier struct{}

func (NoopNotifier) PublishConfirmation(context.Context, payment.Confirmation) error {
	return nil
}
