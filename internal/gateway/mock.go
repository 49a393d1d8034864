package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	domainErrors "github.com/lztpay/lztpay/internal/domain/errors"
	"github.com/lztpay/lztpay/internal/domain/invoice"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

// MockGateway is an in-memory gateway for demos and tests. Invoices stay
// pending until MarkPaid is called or the WithPayAfter threshold is reached.
type MockGateway struct {
	mu          sync.Mutex
	invoices    map[string]*invoice.Invoice
	lookups     map[string]int
	history     []invoice.HistoryItem
	nextID      int64
	balance     decimal.Decimal
	failureRate float64 // 0.0 to 1.0
	latency     time.Duration
	payAfter    int
	payerID     int64
	clock       clockwork.Clock
}

var _ Gateway = (*MockGateway)(nil)

type MockOption func(*MockGateway)

func WithFailureRate(rate float64) MockOption {
	return func(g *MockGateway) { g.failureRate = rate }
}

func WithLatency(d time.Duration) MockOption {
	return func(g *MockGateway) { g.latency = d }
}

// WithPayAfter marks an invoice paid on its n-th lookup.
func WithPayAfter(n int) MockOption {
	return func(g *MockGateway) { g.payAfter = n }
}

// WithMockClock sets the clock used for timestamps and simulated latency.
func WithMockClock(clock clockwork.Clock) MockOption {
	return func(g *MockGateway) { g.clock = clock }
}

func WithMockBalance(b decimal.Decimal) MockOption {
	return func(g *MockGateway) { g.balance = b }
}

func NewMockGateway(opts ...MockOption) *MockGateway {
	g := &MockGateway{
		invoices: make(map[string]*invoice.Invoice),
		lookups:  make(map[string]int),
		nextID:   1000,
		balance:  decimal.NewFromInt(1000),
		payerID:  1,
		clock:    clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *MockGateway) simulate(ctx context.Context, op string) error {
	if g.latency > 0 {
		select {
		case <-g.clock.After(g.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if g.failureRate > 0 && rand.Float64() < g.failureRate {
		return &domainErrors.NetworkError{Op: op, Err: fmt.Errorf("simulated failure")}
	}
	return nil
}

func (g *MockGateway) CreateInvoice(ctx context.Context, req invoice.CreateRequest) (*invoice.Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := g.simulate(ctx, "create_invoice"); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextID++
	now := g.clock.Now()
	inv := &invoice.Invoice{
		InvoiceID:      g.nextID,
		PaymentID:      req.PaymentID,
		MerchantID:     req.MerchantID,
		Amount:         req.Amount,
		Comment:        req.Comment,
		Status:         invoice.StatusPending,
		URL:            fmt.Sprintf("https://lzt.market/invoice/%d/", g.nextID),
		URLSuccess:     req.URLSuccess,
		URLCallback:    req.URLCallback,
		AdditionalData: req.AdditionalData,
		InvoiceDate:    now.Unix(),
		ExpiresAt:      now.Add(time.Duration(req.Lifetime) * time.Second).Unix(),
		IsTest:         req.IsTest,
	}
	g.invoices[req.PaymentID] = inv
	g.lookups[req.PaymentID] = 0

	out := *inv
	return &out, nil
}

func (g *MockGateway) GetInvoice(ctx context.Context, lookup invoice.Lookup) (*invoice.Invoice, error) {
	if err := lookup.Validate(); err != nil {
		return nil, err
	}
	if err := g.simulate(ctx, "get_invoice"); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	inv := g.find(lookup)
	if inv == nil {
		return nil, &domainErrors.APIError{StatusCode: 404, Body: "invoice not found"}
	}

	g.lookups[inv.PaymentID]++
	if g.payAfter > 0 && g.lookups[inv.PaymentID] >= g.payAfter && inv.Status == invoice.StatusPending {
		g.markPaidLocked(inv)
	}

	out := *inv
	return &out, nil
}

func (g *MockGateway) GetBalance(ctx context.Context) (*invoice.Balance, error) {
	if err := g.simulate(ctx, "get_balance"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return &invoice.Balance{Amount: g.balance, Currency: string(invoice.CurrencyRUB)}, nil
}

func (g *MockGateway) GetMerchantBalance(ctx context.Context, merchantID int64) (*invoice.Balance, error) {
	if merchantID <= 0 {
		return nil, domainErrors.NewValidationError("merchant_id", "must be positive")
	}
	return g.GetBalance(ctx)
}

func (g *MockGateway) GetPaymentHistory(ctx context.Context, q invoice.HistoryQuery) (*invoice.History, error) {
	if err := g.simulate(ctx, "get_payment_history"); err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		return nil, domainErrors.NewValidationError("offset", "must not be negative")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var filtered []invoice.HistoryItem
	for _, item := range g.history {
		if q.Type == "" || item.Type == q.Type {
			filtered = append(filtered, item)
		}
	}

	page := []invoice.HistoryItem{}
	if q.Offset < len(filtered) {
		end := min(q.Offset+q.Limit, len(filtered))
		page = append(page, filtered[q.Offset:end]...)
	}
	return &invoice.History{Payments: page, Total: len(filtered)}, nil
}

func (g *MockGateway) FindPaymentByComment(ctx context.Context, comment string) (*invoice.HistoryItem, error) {
	h, err := g.GetPaymentHistory(ctx, invoice.HistoryQuery{Limit: 50})
	if err != nil {
		return nil, err
	}
	for i := range h.Payments {
		if h.Payments[i].Comment == comment {
			return &h.Payments[i], nil
		}
	}
	return nil, nil
}

// MarkPaid settles the invoice for paymentID. It reports whether the
// invoice exists.
func (g *MockGateway) MarkPaid(paymentID string, payerID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	inv, ok := g.invoices[paymentID]
	if !ok {
		return false
	}
	if payerID != 0 {
		g.payerID = payerID
	}
	if inv.Status == invoice.StatusPending {
		g.markPaidLocked(inv)
	}
	return true
}

// Lookups returns how many times paymentID has been looked up.
func (g *MockGateway) Lookups(paymentID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lookups[paymentID]
}

// find matches every identifier the lookup carries.
func (g *MockGateway) find(lookup invoice.Lookup) *invoice.Invoice {
	if lookup.InvoiceID <= 0 {
		return g.invoices[lookup.PaymentID]
	}
	for _, inv := range g.invoices {
		if inv.InvoiceID != lookup.InvoiceID {
			continue
		}
		if lookup.PaymentID != "" && inv.PaymentID != lookup.PaymentID {
			return nil
		}
		return inv
	}
	return nil
}

func (g *MockGateway) markPaidLocked(inv *invoice.Invoice) {
	paid := g.clock.Now().Unix()
	payer := g.payerID
	inv.Status = invoice.StatusPaid
	inv.PaidDate = &paid
	inv.PayerUserID = &payer

	g.balance = g.balance.Add(inv.Amount)
	g.history = append([]invoice.HistoryItem{{
		ID:        inv.InvoiceID,
		Type:      "income",
		Amount:    inv.Amount,
		UserID:    &payer,
		Comment:   inv.Comment,
		Timestamp: paid,
	}}, g.history...)
}
