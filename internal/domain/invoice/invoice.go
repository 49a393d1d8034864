package invoice

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is an ISO-ish lowercase currency code accepted by the gateway.
type Currency string

const (
	CurrencyRUB Currency = "rub"
	CurrencyUAH Currency = "uah"
	CurrencyKZT Currency = "kzt"
	CurrencyBYN Currency = "byn"
	CurrencyUSD Currency = "usd"
	CurrencyEUR Currency = "eur"
	CurrencyGBP Currency = "gbp"
	CurrencyCNY Currency = "cny"
	CurrencyTRY Currency = "try"
	CurrencyJPY Currency = "jpy"
	CurrencyBRL Currency = "brl"
)

// Currencies lists every currency the gateway accepts.
var Currencies = []Currency{
	CurrencyRUB, CurrencyUAH, CurrencyKZT, CurrencyBYN, CurrencyUSD, CurrencyEUR,
	CurrencyGBP, CurrencyCNY, CurrencyTRY, CurrencyJPY, CurrencyBRL,
}

// ParseCurrency normalizes s and reports whether it is a known currency.
func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Currencies {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Status is the gateway side invoice status.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusExpired Status = "expired"
)

// Invoice lifetime bounds enforced by the gateway.
const (
	MinLifetime     = 300
	MaxLifetime     = 43200
	DefaultLifetime = 3600
)

// CreateRequest is the payload for creating an invoice.
type CreateRequest struct {
	Currency       Currency        `json:"currency" validate:"required,oneof=rub uah kzt byn usd eur gbp cny try jpy brl"`
	Amount         decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentID      string          `json:"payment_id" validate:"required,max=255"`
	Comment        string          `json:"comment" validate:"required"`
	URLSuccess     string          `json:"url_success" validate:"required,url"`
	URLCallback    string          `json:"url_callback,omitempty" validate:"omitempty,url"`
	MerchantID     int64           `json:"merchant_id" validate:"required,gt=0"`
	Lifetime       int             `json:"lifetime" validate:"min=300,max=43200"`
	AdditionalData string          `json:"additional_data,omitempty"`
	IsTest         bool            `json:"is_test"`
}

// Invoice is the gateway's view of a payment. It is never owned locally.
type Invoice struct {
	InvoiceID      int64           `json:"invoice_id"`
	PaymentID      string          `json:"payment_id"`
	MerchantID     int64           `json:"merchant_id"`
	UserID         int64           `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Comment        string          `json:"comment"`
	Status         Status          `json:"status"`
	URL            string          `json:"url"`
	URLSuccess     string          `json:"url_success"`
	URLCallback    string          `json:"url_callback,omitempty"`
	AdditionalData string          `json:"additional_data,omitempty"`
	InvoiceDate    int64           `json:"invoice_date"`
	ExpiresAt      int64           `json:"expires_at"`
	PaidDate       *int64          `json:"paid_date,omitempty"`
	PayerUserID    *int64          `json:"payer_user_id,omitempty"`
	IsTest         bool            `json:"is_test"`
	ResendAttempts int             `json:"resend_attempts"`
}

// IsPaid reports whether the gateway has confirmed the payment.
func (i *Invoice) IsPaid() bool {
	return i.Status == StatusPaid
}

// ExpiresTime returns the gateway side expiry.
func (i *Invoice) ExpiresTime() time.Time {
	return time.Unix(i.ExpiresAt, 0).UTC()
}

// PaidTime returns when the invoice was paid, or the zero time if it wasn't.
func (i *Invoice) PaidTime() time.Time {
	if i.PaidDate == nil {
		return time.Time{}
	}
	return time.Unix(*i.PaidDate, 0).UTC()
}

// Payer returns the paying user id, or 0 if unknown.
func (i *Invoice) Payer() int64 {
	if i.PayerUserID == nil {
		return 0
	}
	return *i.PayerUserID
}

// Response is the envelope the gateway wraps invoices in.
type Response struct {
	Invoice Invoice `json:"invoice"`
}

// Lookup selects an invoice by gateway id or by correlation (payment) id.
type Lookup struct {
	InvoiceID int64
	PaymentID string
}

// Balance is a merchant or account balance.
type Balance struct {
	Amount   decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// HistoryQuery pages through the account payment history.
type HistoryQuery struct {
	Limit  int
	Offset int
	Type   string
}

// HistoryItem is one entry of the account payment history.
type HistoryItem struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	UserID    *int64          `json:"user_id,omitempty"`
	Username  string          `json:"username,omitempty"`
	Comment   string          `json:"comment,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// History is a page of payment history.
type History struct {
	Payments []HistoryItem `json:"payments"`
	Total    int           `json:"total"`
}
