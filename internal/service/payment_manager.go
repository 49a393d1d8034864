package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainErrors "github.com/lztpay/lztpay/internal/domain/errors"
	"github.com/lztpay/lztpay/internal/domain/invoice"
	"github.com/lztpay/lztpay/internal/domain/payment"
	"github.com/lztpay/lztpay/internal/gateway"
	"github.com/lztpay/lztpay/internal/infrastructure/observability"
	"github.com/lztpay/lztpay/internal/worker"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// PaymentManagerConfig holds the merchant settings applied to every invoice.
type PaymentManagerConfig struct {
	MerchantID  int64
	URLSuccess  string
	URLCallback string
}

// PaymentManager creates invoices, tracks them locally and confirms them
// against the gateway.
type PaymentManager struct {
	gateway  gateway.Gateway
	store    payment.Tracker
	notifier Notifier
	cfg      PaymentManagerConfig
	logger   zerolog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	mu      sync.Mutex
	cleanup *worker.CleanupScheduler
}

type ManagerOption func(*PaymentManager)

func WithNotifier(n Notifier) ManagerOption {
	return func(m *PaymentManager) { m.notifier = n }
}

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *PaymentManager) { m.logger = logger }
}

func WithMetrics(metrics *observability.Metrics) ManagerOption {
	return func(m *PaymentManager) { m.metrics = metrics }
}

// WithClock sets the clock used for polling waits and the cleanup ticker.
func WithClock(clock clockwork.Clock) ManagerOption {
	return func(m *PaymentManager) { m.clock = clock }
}

// NewPaymentManager creates a new PaymentManager.
func NewPaymentManager(gw gateway.Gateway, store payment.Tracker, cfg PaymentManagerConfig, opts ...ManagerOption) *PaymentManager {
	m := &PaymentManager{
		gateway:  gw,
		store:    store,
		notifier: NoopNotifier{},
		cfg:      cfg,
		logger:   zerolog.Nop(),
		clock:    clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(m)
	}
	m.logger = m.logger.With().Str("component", "payment_manager").Logger()
	return m
}

// CreateInvoice registers an invoice with the gateway and starts tracking it.
// Nothing is stored if the gateway call fails.
func (m *PaymentManager) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*payment.Summary, error) {
	paymentID := req.PaymentID
	if paymentID == "" {
		paymentID = uuid.NewString()
	}
	comment := req.Comment
	if comment == "" {
		comment = defaultComment(paymentID)
	}
	currency := req.Currency
	if currency == "" {
		currency = invoice.CurrencyRUB
	}
	lifetime := req.Lifetime
	if lifetime == 0 {
		lifetime = invoice.DefaultLifetime
	}

	inv, err := m.gateway.CreateInvoice(ctx, invoice.CreateRequest{
		Currency:       currency,
		Amount:         req.Amount,
		PaymentID:      paymentID,
		Comment:        comment,
		URLSuccess:     m.cfg.URLSuccess,
		URLCallback:    m.cfg.URLCallback,
		MerchantID:     m.cfg.MerchantID,
		Lifetime:       lifetime,
		AdditionalData: req.AdditionalData,
		IsTest:         req.IsTest,
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice %s: %w", paymentID, err)
	}

	m.store.Put(paymentID, req.Amount, req.OwnerID, payment.Metadata{
		InvoiceID:      inv.InvoiceID,
		IsTest:         req.IsTest,
		AdditionalData: req.AdditionalData,
		Currency:       currency,
		Extra:          req.Extra,
	})

	stats := m.store.Stats()
	trackTTL := time.Duration(stats.TTLSeconds) * time.Second
	if trackTTL < time.Duration(lifetime)*time.Second {
		m.logger.Warn().
			Str("payment_id", paymentID).
			Dur("tracking_ttl", trackTTL).
			Int("invoice_lifetime", lifetime).
			Msg("tracking ttl shorter than invoice lifetime, a late payment will not be confirmable")
		if m.metrics != nil {
			m.metrics.TrackingTTLShort.Inc()
		}
	}

	if m.metrics != nil {
		m.metrics.InvoicesCreated.WithLabelValues(string(currency)).Inc()
		m.metrics.TrackedPayments.Set(float64(stats.TotalTracked))
	}

	m.logger.Info().
		Str("payment_id", paymentID).
		Int64("invoice_id", inv.InvoiceID).
		Str("amount", req.Amount.String()).
		Bool("is_test", req.IsTest).
		Str("url", inv.URL).
		Msg("invoice created")

	return &payment.Summary{
		PaymentID:  paymentID,
		InvoiceID:  inv.InvoiceID,
		Amount:     req.Amount,
		PaymentURL: inv.URL,
		Status:     inv.Status,
		ExpiresAt:  inv.ExpiresTime(),
		IsTest:     req.IsTest,
	}, nil
}

// CheckPayment asks the gateway whether a tracked payment has been paid.
// It returns (nil, nil) while the invoice is still pending. A confirmed
// payment is published, removed from tracking and returned exactly once;
// later checks fail with PaymentNotFoundError.
func (m *PaymentManager) CheckPayment(ctx context.Context, paymentID string) (*payment.Confirmation, error) {
	rec, ok := m.store.Get(paymentID)
	if !ok {
		m.countCheck("not_found")
		return nil, domainErrors.NewPaymentNotFoundError(paymentID)
	}

	inv, err := m.gateway.GetInvoice(ctx, invoice.Lookup{PaymentID: paymentID})
	if err != nil {
		m.countCheck("error")
		return nil, fmt.Errorf("check payment %s: %w", paymentID, err)
	}

	if !inv.IsPaid() {
		m.countCheck("pending")
		m.logger.Debug().
			Str("payment_id", paymentID).
			Str("status", string(inv.Status)).
			Msg("payment not confirmed yet")
		return nil, nil
	}

	// Tracking may have lapsed while the gateway answered.
	if st := rec.StatusAt(m.clock.Now()); !st.CanTransitionTo(payment.StatusConfirmed) {
		m.countCheck("not_found")
		m.logger.Warn().
			Str("payment_id", paymentID).
			Str("status", string(st)).
			Msg("paid invoice arrived after tracking expired")
		return nil, domainErrors.NewPaymentNotFoundError(paymentID)
	}

	conf := payment.Confirmation{
		PaymentID:   paymentID,
		InvoiceID:   inv.InvoiceID,
		Amount:      inv.Amount,
		PayerUserID: inv.Payer(),
		PaidDate:    inv.PaidTime(),
		Confirmed:   true,
	}

	// Publish first: if it fails the record stays and the check can be retried.
	if err := m.notifier.PublishConfirmation(ctx, conf); err != nil {
		m.countCheck("error")
		m.countPublish("failed")
		return nil, fmt.Errorf("publish confirmation %s: %w", paymentID, err)
	}
	m.countPublish("published")

	if !m.store.Delete(paymentID) {
		m.countCheck("not_found")
		return nil, domainErrors.NewPaymentNotFoundError(paymentID)
	}

	m.countCheck("paid")
	if m.metrics != nil {
		m.metrics.PaymentsConfirmed.Inc()
		m.metrics.TrackedPayments.Set(float64(m.store.Stats().TotalTracked))
	}

	m.logger.Info().
		Str("payment_id", paymentID).
		Int64("invoice_id", inv.InvoiceID).
		Str("amount", inv.Amount.String()).
		Int64("payer_user_id", conf.PayerUserID).
		Str("status", string(payment.StatusConfirmed)).
		Msg("payment confirmed")

	return &conf, nil
}

// WaitForPayment polls CheckPayment every interval until the payment is
// confirmed, an error occurs or maxAttempts checks found it pending.
func (m *PaymentManager) WaitForPayment(ctx context.Context, paymentID string, interval time.Duration, maxAttempts int) (*payment.Confirmation, error) {
	if interval <= 0 {
		return nil, domainErrors.NewValidationError("interval", "must be positive")
	}
	if maxAttempts <= 0 {
		return nil, domainErrors.NewValidationError("max_attempts", "must be positive")
	}

	for attempt := 1; ; attempt++ {
		conf, err := m.CheckPayment(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if conf != nil {
			return conf, nil
		}
		if attempt >= maxAttempts {
			return nil, fmt.Errorf("payment %s after %d checks: %w", paymentID, attempt, domainErrors.ErrPaymentTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-m.clock.After(interval):
		}
	}
}

// GetPaymentInfo returns the tracked record, if present and unexpired.
func (m *PaymentManager) GetPaymentInfo(paymentID string) (payment.Record, bool) {
	return m.store.Get(paymentID)
}

// PaymentsByOwner returns every tracked payment of an owner, unordered.
func (m *PaymentManager) PaymentsByOwner(ownerID int64) []payment.Record {
	return m.store.FindByOwner(ownerID)
}

// GetStats returns tracker statistics.
func (m *PaymentManager) GetStats() payment.Stats {
	return m.store.Stats()
}

// Balance returns the account balance, or the merchant balance when
// merchantID is positive.
func (m *PaymentManager) Balance(ctx context.Context, merchantID int64) (*invoice.Balance, error) {
	if merchantID > 0 {
		return m.gateway.GetMerchantBalance(ctx, merchantID)
	}
	return m.gateway.GetBalance(ctx)
}

// History returns the gateway payment history page described by q.
func (m *PaymentManager) History(ctx context.Context, q invoice.HistoryQuery) (*invoice.History, error) {
	return m.gateway.GetPaymentHistory(ctx, q)
}

// FindByComment looks up a completed payment by its comment.
func (m *PaymentManager) FindByComment(ctx context.Context, comment string) (*invoice.HistoryItem, error) {
	return m.gateway.FindPaymentByComment(ctx, comment)
}

// StartCleanup launches the background sweep of expired payments.
func (m *PaymentManager) StartCleanup(ctx context.Context, interval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cleanup != nil && m.cleanup.Running() {
		return worker.ErrAlreadyRunning
	}

	s := worker.NewCleanupScheduler(m.store, interval,
		worker.WithLogger(m.logger),
		worker.WithMetrics(m.metrics),
		worker.WithClock(m.clock),
	)
	if err := s.Start(ctx); err != nil {
		return err
	}
	m.cleanup = s
	return nil
}

// StopCleanup stops the background sweep and waits for it to exit.
func (m *PaymentManager) StopCleanup() error {
	m.mu.Lock()
	s := m.cleanup
	m.cleanup = nil
	m.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Stop()
}

// CleanupRunning reports whether the background sweep is active.
func (m *PaymentManager) CleanupRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleanup != nil && m.cleanup.Running()
}

func (m *PaymentManager) countCheck(result string) {
	if m.metrics != nil {
		m.metrics.PaymentChecks.WithLabelValues(result).Inc()
	}
}

func (m *PaymentManager) countPublish(status string) {
	if m.metrics != nil {
		m.metrics.ConfirmationsPublished.WithLabelValues(status).Inc()
	}
}

func defaultComment(paymentID string) string {
	prefix := []rune(paymentID)
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "Payment " + string(prefix)
}

// IsNotFound reports whether err means the payment is not tracked.
func IsNotFound(err error) bool {
	return errors.Is(err, domainErrors.ErrPaymentNotFound)
}
