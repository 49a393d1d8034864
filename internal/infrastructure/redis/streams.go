package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/lztpay/lztpay/internal/domain/payment"

	"github.com/redis/go-redis/v9"
)

// DefaultConfirmationStream is the stream confirmed payments are appended to.
const DefaultConfirmationStream = "payments:confirmed"

// ConfirmationPublisher appends confirmed payments to a Redis stream. The
// stream is trimmed approximately to maxLen entries.
type ConfirmationPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

func NewConfirmationPublisher(client redis.Cmdable, stream string, maxLen int64) *ConfirmationPublisher {
	if stream == "" {
		stream = DefaultConfirmationStream
	}
	return &ConfirmationPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *ConfirmationPublisher) Stream() string {
	return p.stream
}

func (p *ConfirmationPublisher) PublishConfirmation(ctx context.Context, c payment.Confirmation) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: confirmationValues(c, time.Now()),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish confirmation for %s: %w", c.PaymentID, err)
	}
	return nil
}

// confirmationValues flattens c into stream fields. Amounts are kept as
// decimal strings so consumers never see float rounding.
func confirmationValues(c payment.Confirmation, now time.Time) map[string]any {
	return map[string]any{
		"payment_id":    c.PaymentID,
		"invoice_id":    c.InvoiceID,
		"amount":        c.Amount.String(),
		"payer_user_id": c.PayerUserID,
		"paid_date":     c.PaidDate.Unix(),
		"published_at":  now.Unix(),
	}
}
