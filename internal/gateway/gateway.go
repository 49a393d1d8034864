package gateway

import (
	"context"
	"time"

	"github.com/lztpay/lztpay/internal/domain/invoice"
)

// DefaultBaseURL is the production gateway endpoint.
const DefaultBaseURL = "https://prod-api.lzt.market"

// Gateway is the remote payment gateway as seen by the payment manager.
type Gateway interface {
	// CreateInvoice registers a new invoice. The request is validated
	// before any network traffic.
	CreateInvoice(ctx context.Context, req invoice.CreateRequest) (*invoice.Invoice, error)
	// GetInvoice looks an invoice up by gateway id or by payment id.
	GetInvoice(ctx context.Context, lookup invoice.Lookup) (*invoice.Invoice, error)
	// GetBalance returns the account balance.
	GetBalance(ctx context.Context) (*invoice.Balance, error)
	// GetMerchantBalance returns the balance of a merchant.
	GetMerchantBalance(ctx context.Context, merchantID int64) (*invoice.Balance, error)
	// GetPaymentHistory returns one page of the account payment history.
	GetPaymentHistory(ctx context.Context, q invoice.HistoryQuery) (*invoice.History, error)
	// FindPaymentByComment scans the latest history page for a payment with
	// the exact comment. It returns nil when none matches.
	FindPaymentByComment(ctx context.Context, comment string) (*invoice.HistoryItem, error)
}

// BreakerConfig tunes the circuit breaker guarding the gateway.
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerConfig mirrors the settings used for every upstream.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  10,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string

	// RateLimit is the client side request budget per second. Zero disables it.
	RateLimit float64
	RateBurst int

	Breaker BreakerConfig
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "lztpay-go"
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.Breaker == (BreakerConfig{}) {
		c.Breaker = DefaultBreakerConfig()
	}
	return c
}
