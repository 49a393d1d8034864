package testutil

import (
	"context"
	"sync"

	"github.com/lztpay/lztpay/internal/domain/invoice"
	"github.com/lztpay/lztpay/internal/domain/payment"
)

// --- Gateway Mock ---

// MockGateway is a mock implementation of gateway.Gateway. Unset funcs
// return zero values.
type MockGateway struct {
	mu    sync.Mutex
	calls map[string]int

	CreateInvoiceFunc        func(ctx context.Context, req invoice.CreateRequest) (*invoice.Invoice, error)
	GetInvoiceFunc           func(ctx context.Context, lookup invoice.Lookup) (*invoice.Invoice, error)
	GetBalanceFunc           func(ctx context.Context) (*invoice.Balance, error)
	GetMerchantBalanceFunc   func(ctx context.Context, merchantID int64) (*invoice.Balance, error)
	GetPaymentHistoryFunc    func(ctx context.Context, q invoice.HistoryQuery) (*invoice.History, error)
	FindPaymentByCommentFunc func(ctx context.Context, comment string) (*invoice.HistoryItem, error)
}

func NewMockGateway() *MockGateway {
	return &MockGateway{calls: make(map[string]int)}
}

// Calls returns how many times method was invoked.
func (m *MockGateway) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockGateway) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

func (m *MockGateway) CreateInvoice(ctx context.Context, req invoice.CreateRequest) (*invoice.Invoice, error) {
	m.record("CreateInvoice")
	if m.CreateInvoiceFunc != nil {
		return m.CreateInvoiceFunc(ctx, req)
	}
	return NewTestInvoice(req.PaymentID, req.Amount), nil
}

func (m *MockGateway) GetInvoice(ctx context.Context, lookup invoice.Lookup) (*invoice.Invoice, error) {
	m.record("GetInvoice")
	if m.GetInvoiceFunc != nil {
		return m.GetInvoiceFunc(ctx, lookup)
	}
	return nil, nil
}

func (m *MockGateway) GetBalance(ctx context.Context) (*invoice.Balance, error) {
	m.record("GetBalance")
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx)
	}
	return &invoice.Balance{Currency: string(invoice.CurrencyRUB)}, nil
}

func (m *MockGateway) GetMerchantBalance(ctx context.Context, merchantID int64) (*invoice.Balance, error) {
	m.record("GetMerchantBalance")
	if m.GetMerchantBalanceFunc != nil {
		return m.GetMerchantBalanceFunc(ctx, merchantID)
	}
	return &invoice.Balance{Currency: string(invoice.CurrencyRUB)}, nil
}

func (m *MockGateway) GetPaymentHistory(ctx context.Context, q invoice.HistoryQuery) (*invoice.History, error) {
	m.record("GetPaymentHistory")
	if m.GetPaymentHistoryFunc != nil {
		return m.GetPaymentHistoryFunc(ctx, q)
	}
	return &invoice.History{}, nil
}

func (m *MockGateway) FindPaymentByComment(ctx context.Context, comment string) (*invoice.HistoryItem, error) {
	m.record("FindPaymentByComment")
	if m.FindPaymentByCommentFunc != nil {
		return m.FindPaymentByCommentFunc(ctx, comment)
	}
	return nil, nil
}

// --- Notifier Mock ---

// MockNotifier records published confirmations.
type MockNotifier struct {
	mu     sync.Mutex
	Events []payment.Confirmation

	PublishConfirmationFunc func(ctx context.Context, c payment.Confirmation) error
}

func (m *MockNotifier) PublishConfirmation(ctx context.Context, c payment.Confirmation) error {
	if m.PublishConfirmationFunc != nil {
		if err := m.PublishConfirmationFunc(ctx, c); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, c)
	return nil
}

// Published returns a copy of the recorded events.
func (m *MockNotifier) Published() []payment.Confirmation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]payment.Confirmation(nil), m.Events...)
}
