package service

import (
	"github.com/lztpay/lztpay/internal/domain/invoice"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is the manager level input for a new payment.
// Controllers and the CLI convert their inputs to this type.
type CreateInvoiceRequest struct {
	PaymentID      string // generated when empty
	Amount         decimal.Decimal
	Currency       invoice.Currency // rub when empty
	OwnerID        int64
	Comment        string // "Payment <id prefix>" when empty
	Lifetime       int    // seconds, DefaultLifetime when zero
	AdditionalData string
	IsTest         bool
	Extra          map[string]string
}
