package payment

import (
	"maps"
	"time"

	"github.com/lztpay/lztpay/internal/domain/invoice"

	"github.com/shopspring/decimal"
)

// Status is the local lifecycle state of a tracked payment.
type Status string

const (
	StatusCreated   Status = "created"
	StatusConfirmed Status = "confirmed"
	StatusExpired   Status = "expired"
)

// IsTerminal checks if the status is a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusExpired
}

// CanTransitionTo checks if a payment in status s may move to next.
// created is the only non-terminal state and nothing leads back to it.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusCreated && next.IsTerminal()
}

// Metadata is stored alongside a record and is opaque to the store.
type Metadata struct {
	InvoiceID      int64
	IsTest         bool
	AdditionalData string
	Currency       invoice.Currency
	Extra          map[string]string
}

// Clone returns a copy that shares no mutable state with m.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Extra != nil {
		out.Extra = maps.Clone(m.Extra)
	}
	return out
}

// Record is a locally tracked in-flight payment. Records are values: once
// stored they are only ever replaced or deleted, never edited.
type Record struct {
	PaymentID string
	Amount    decimal.Decimal
	OwnerID   int64
	CreatedAt time.Time
	ExpiresAt time.Time
	Metadata  Metadata
}

// NewRecord creates a record that expires ttl after now.
func NewRecord(paymentID string, amount decimal.Decimal, ownerID int64, meta Metadata, now time.Time, ttl time.Duration) Record {
	return Record{
		PaymentID: paymentID,
		Amount:    amount,
		OwnerID:   ownerID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Metadata:  meta.Clone(),
	}
}

// ExpiredAt reports whether the record is expired at now. Expiry is
// exclusive: at exactly ExpiresAt the record is still live.
func (r Record) ExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// StatusAt returns the lifecycle status of the record at now. A record that
// is still stored is either created or, past its expiry, expired.
func (r Record) StatusAt(now time.Time) Status {
	if r.ExpiredAt(now) {
		return StatusExpired
	}
	return StatusCreated
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	r.Metadata = r.Metadata.Clone()
	return r
}

// Stats is a point in time view of the tracker.
type Stats struct {
	TotalTracked int `json:"total_payments"`
	TTLSeconds   int `json:"ttl_seconds"`
}

// Summary is returned to callers after an invoice is created.
type Summary struct {
	PaymentID  string          `json:"payment_id"`
	InvoiceID  int64           `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount"`
	PaymentURL string          `json:"payment_url"`
	Status     invoice.Status  `json:"status"`
	ExpiresAt  time.Time       `json:"expires_at"`
	IsTest     bool            `json:"is_test"`
}

// Confirmation is returned once the gateway reports a payment as paid.
type Confirmation struct {
	PaymentID   string          `json:"payment_id"`
	InvoiceID   int64           `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	PayerUserID int64           `json:"payer_user_id"`
	PaidDate    time.Time       `json:"paid_date"`
	Confirmed   bool            `json:"confirmed"`
}
