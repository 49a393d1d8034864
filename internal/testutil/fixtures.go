package testutil

import (
	"time"

	"github.com/lztpay/lztpay/internal/domain/invoice"

	"github.com/shopspring/decimal"
)

// NewTestInvoice returns a pending invoice for paymentID.
func NewTestInvoice(paymentID string, amount decimal.Decimal) *invoice.Invoice {
	now := time.Now()
	return &invoice.Invoice{
		InvoiceID:   12345,
		PaymentID:   paymentID,
		MerchantID:  1,
		Amount:      amount,
		Comment:     "test invoice",
		Status:      invoice.StatusPending,
		URL:         "https://lzt.market/invoice/12345/",
		URLSuccess:  "https://example.com/success",
		InvoiceDate: now.Unix(),
		ExpiresAt:   now.Add(time.Hour).Unix(),
	}
}

// NewPaidInvoice returns inv marked as paid by payerID at paidAt.
func NewPaidInvoice(inv *invoice.Invoice, payerID int64, paidAt time.Time) *invoice.Invoice {
	out := *inv
	paid := paidAt.Unix()
	out.Status = invoice.StatusPaid
	out.PaidDate = &paid
	out.PayerUserID = &payerID
	return &out
}
