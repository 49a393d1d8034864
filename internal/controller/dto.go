package controller

import (
	"time"

	"github.com/lztpay/lztpay/internal/domain/invoice"
	"github.com/lztpay/lztpay/internal/domain/payment"

	"github.com/shopspring/decimal"
)

// --- Request DTOs ---
// Amounts are decimals so "10.10" and 10.10 decode to the same value
// without float rounding.

// CreateInvoiceRequest holds the input for registering a new payment.
type CreateInvoiceRequest struct {
	PaymentID      string            `json:"payment_id" validate:"omitempty,max=255"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency" validate:"omitempty,oneof=rub uah kzt byn usd eur gbp cny try jpy brl"`
	OwnerID        int64             `json:"owner_id" validate:"gte=0"`
	Comment        string            `json:"comment" validate:"max=255"`
	Lifetime       int               `json:"lifetime" validate:"omitempty,min=300,max=43200"`
	AdditionalData string            `json:"additional_data" validate:"max=1024"`
	IsTest         bool              `json:"is_test"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// WebhookRequest is the part of the gateway callback we read. The status in
// the payload is never trusted; the invoice is always re-fetched.
type WebhookRequest struct {
	PaymentID string `json:"payment_id" validate:"required,max=255"`
	InvoiceID int64  `json:"invoice_id"`
	Status    string `json:"status"`
}

// --- Response DTOs ---

// PaymentResponse represents a tracked payment.
type PaymentResponse struct {
	PaymentID      string            `json:"payment_id"`
	InvoiceID      int64             `json:"invoice_id"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	OwnerID        int64             `json:"owner_id"`
	IsTest         bool              `json:"is_test"`
	AdditionalData string            `json:"additional_data,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiresAt      time.Time         `json:"expires_at"`
}

// CheckResponse is the outcome of a single status check.
type CheckResponse struct {
	PaymentID    string                `json:"payment_id"`
	Status       string                `json:"status"`
	Confirmation *payment.Confirmation `json:"confirmation,omitempty"`
}

// ListResponse wraps a collection.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromRecord converts a tracked record to its API form.
func FromRecord(r payment.Record) PaymentResponse {
	return PaymentResponse{
		PaymentID:      r.PaymentID,
		InvoiceID:      r.Metadata.InvoiceID,
		Amount:         r.Amount,
		Currency:       string(r.Metadata.Currency),
		OwnerID:        r.OwnerID,
		IsTest:         r.Metadata.IsTest,
		AdditionalData: r.Metadata.AdditionalData,
		Extra:          r.Metadata.Extra,
		CreatedAt:      r.CreatedAt,
		ExpiresAt:      r.ExpiresAt,
	}
}

func checkResponse(paymentID string, c *payment.Confirmation) CheckResponse {
	if c == nil {
		return CheckResponse{PaymentID: paymentID, Status: string(invoice.StatusPending)}
	}
	return CheckResponse{PaymentID: paymentID, Status: string(invoice.StatusPaid), Confirmation: c}
}
