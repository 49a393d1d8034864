package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Tracking errors
	ErrPaymentNotFound = errors.New("payment not found or expired")
	ErrPaymentTimeout  = errors.New("payment not confirmed in time")

	// Gateway errors
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrClientClosed       = errors.New("gateway client is closed")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError is returned for malformed input, before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// AuthError means the gateway rejected our credential. Never retried.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "gateway auth failed: " + e.Message
}

// APIError is any non-2xx gateway response not classified otherwise.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gateway request failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway request failed: status %d: %s", e.StatusCode, e.Body)
}

// RateLimitError is a 429 from the gateway. RetryAfter is the server hint,
// zero when the header was missing or unparsable.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("gateway rate limit exceeded, retry after %s", e.RetryAfter)
}

// NetworkError wraps a transport level failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error on %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// PaymentNotFoundError is returned when no unexpired tracking record exists.
type PaymentNotFoundError struct {
	PaymentID string
}

func (e *PaymentNotFoundError) Error() string {
	return fmt.Sprintf("payment not found or expired: %s", e.PaymentID)
}

func (e *PaymentNotFoundError) Is(target error) bool {
	return target == ErrPaymentNotFound
}

// NewPaymentNotFoundError creates a not found error for the given payment id.
func NewPaymentNotFoundError(paymentID string) *PaymentNotFoundError {
	return &PaymentNotFoundError{PaymentID: paymentID}
}

// IsTransient reports whether err is expected to succeed if retried unchanged.
func IsTransient(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var rateErr *RateLimitError
	return errors.As(err, &rateErr)
}

// RetryAfter returns the server supplied backoff hint carried by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
		return rateErr.RetryAfter, true
	}
	return 0, false
}
