package payment_test

import (
	"testing"
	"time"

	"github.com/lztpay/lztpay/internal/domain/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewRecord_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := payment.NewRecord("abc123", decimal.NewFromInt(1), 0, payment.Metadata{InvoiceID: 1}, now, 2*time.Second)

	assert.Equal(t, now, r.CreatedAt)
	assert.Equal(t, now.Add(2*time.Second), r.ExpiresAt)
	assert.False(t, r.ExpiredAt(now))
	assert.False(t, r.ExpiredAt(r.ExpiresAt), "expiry is exclusive")
	assert.True(t, r.ExpiredAt(r.ExpiresAt.Add(time.Nanosecond)))
}

func TestNewRecord_CopiesExtra(t *testing.T) {
	extra := map[string]string{"order": "42"}
	r := payment.NewRecord("abc", decimal.NewFromInt(1), 7, payment.Metadata{Extra: extra}, time.Now(), time.Minute)

	extra["order"] = "changed"
	assert.Equal(t, "42", r.Metadata.Extra["order"])

	clone := r.Clone()
	clone.Metadata.Extra["order"] = "mutated"
	assert.Equal(t, "42", r.Metadata.Extra["order"])
}

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from     payment.Status
		to       payment.Status
		expected bool
	}{
		{payment.StatusCreated, payment.StatusConfirmed, true},
		{payment.StatusCreated, payment.StatusExpired, true},
		{payment.StatusCreated, payment.StatusCreated, false},
		{payment.StatusConfirmed, payment.StatusCreated, false},
		{payment.StatusConfirmed, payment.StatusExpired, false},
		{payment.StatusExpired, payment.StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.False(t, payment.StatusCreated.IsTerminal())
	assert.True(t, payment.StatusConfirmed.IsTerminal())
	assert.True(t, payment.StatusExpired.IsTerminal())
}

func TestRecord_StatusAt(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	r := payment.NewRecord("p1", decimal.NewFromInt(1), 1, payment.Metadata{}, now, time.Minute)

	assert.Equal(t, payment.StatusCreated, r.StatusAt(now))
	assert.Equal(t, payment.StatusCreated, r.StatusAt(now.Add(time.Minute)), "live at exactly ExpiresAt")
	assert.Equal(t, payment.StatusExpired, r.StatusAt(now.Add(time.Minute+time.Nanosecond)))
	assert.True(t, r.StatusAt(now).CanTransitionTo(payment.StatusConfirmed))
	assert.False(t, r.StatusAt(now.Add(time.Hour)).CanTransitionTo(payment.StatusConfirmed))
}
