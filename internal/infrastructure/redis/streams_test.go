package redis

import (
	"context"
	"testing"
	"time"

	"github.com/lztpay/lztpay/internal/domain/payment"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationValues(t *testing.T) {
	paid := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := paid.Add(time.Minute)

	values := confirmationValues(payment.Confirmation{
		PaymentID:   "order-1",
		InvoiceID:   12345,
		Amount:      decimal.RequireFromString("100.10"),
		PayerUserID: 77,
		PaidDate:    paid,
		Confirmed:   true,
	}, now)

	assert.Equal(t, "order-1", values["payment_id"])
	assert.Equal(t, int64(12345), values["invoice_id"])
	assert.Equal(t, "100.1", values["amount"])
	assert.Equal(t, int64(77), values["payer_user_id"])
	assert.Equal(t, paid.Unix(), values["paid_date"])
	assert.Equal(t, now.Unix(), values["published_at"])
}

func TestNewConfirmationPublisher_DefaultStream(t *testing.T) {
	p := NewConfirmationPublisher(nil, "", 0)
	assert.Equal(t, DefaultConfirmationStream, p.Stream())

	p = NewConfirmationPublisher(nil, "custom", 10)
	assert.Equal(t, "custom", p.Stream())
}

func TestConfirmationPublisher_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	p := NewConfirmationPublisher(client, "", 100)
	err := p.PublishConfirmation(context.Background(), payment.Confirmation{PaymentID: "order-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "order-1")
}
