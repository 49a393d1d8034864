package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	domainErrors "github.com/lztpay/lztpay/internal/domain/errors"
	"github.com/lztpay/lztpay/internal/domain/invoice"
	"github.com/lztpay/lztpay/internal/infrastructure/observability"
	"github.com/lztpay/lztpay/pkg/retry"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	tracerName = "github.com/lztpay/lztpay/internal/gateway"

	maxResponseBody = 1 << 20
	maxErrorBody    = 512
)

// Client talks to the gateway over HTTPS with a bearer token. It is safe for
// concurrent use until Close is called.
type Client struct {
	cfg      Config
	baseURL  *url.URL
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
	limiter  *rate.Limiter
	retryCfg retry.Config
	timer    retry.Timer
	tracer   trace.Tracer
	logger   zerolog.Logger
	metrics  *observability.Metrics
	closed   atomic.Bool
}

var _ Gateway = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithRetryConfig overrides the backoff policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.retryCfg = cfg }
}

// WithRetryTimer replaces the backoff timer.
func WithRetryTimer(t retry.Timer) Option {
	return func(c *Client) { c.timer = t }
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Open creates a client session. The caller owns it and must Close it.
func Open(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, domainErrors.NewValidationError("token", "is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, domainErrors.NewValidationError("base_url", "must be an absolute URL")
	}

	c := &Client{
		cfg:      cfg,
		baseURL:  base,
		http:     &http.Client{Timeout: cfg.Timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		retryCfg: retry.DefaultConfig(),
		tracer:   otel.Tracer(tracerName),
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}

	c.logger = c.logger.With().Str("component", "gateway").Logger()
	c.breaker = newBreaker(c.cfg.Breaker, c.logger, c.metrics)
	if c.cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(c.cfg.RateLimit), c.cfg.RateBurst)
	}

	c.logger.Debug().Str("base_url", base.String()).Msg("gateway client opened")
	return c, nil
}

// With opens a client, runs fn and closes the client on every exit path.
func With(cfg Config, fn func(*Client) error, opts ...Option) (err error) {
	c, err := Open(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.Close())
	}()
	return fn(c)
}

// Close releases idle connections. Further calls fail with ErrClientClosed.
// Closing twice is a no-op.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.http.CloseIdleConnections()
	c.logger.Debug().Msg("gateway client closed")
	return nil
}

func (c *Client) CreateInvoice(ctx context.Context, req invoice.CreateRequest) (*invoice.Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("payment_id", req.PaymentID).
		Str("amount", req.Amount.String()).
		Int64("merchant_id", req.MerchantID).
		Msg("creating invoice")

	var resp invoice.Response
	if err := c.do(ctx, "create_invoice", http.MethodPost, "/invoice", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Invoice, nil
}

func (c *Client) GetInvoice(ctx context.Context, lookup invoice.Lookup) (*invoice.Invoice, error) {
	if err := lookup.Validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	if lookup.InvoiceID > 0 {
		q.Set("invoice_id", strconv.FormatInt(lookup.InvoiceID, 10))
	}
	if lookup.PaymentID != "" {
		q.Set("payment_id", lookup.PaymentID)
	}

	var resp invoice.Response
	if err := c.do(ctx, "get_invoice", http.MethodGet, "/invoice", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Invoice, nil
}

func (c *Client) GetBalance(ctx context.Context) (*invoice.Balance, error) {
	var b invoice.Balance
	if err := c.do(ctx, "get_balance", http.MethodGet, "/balance", nil, nil, &b); err != nil {
		return nil, err
	}
	if b.Currency == "" {
		b.Currency = string(invoice.CurrencyRUB)
	}
	return &b, nil
}

func (c *Client) GetMerchantBalance(ctx context.Context, merchantID int64) (*invoice.Balance, error) {
	if merchantID <= 0 {
		return nil, domainErrors.NewValidationError("merchant_id", "must be positive")
	}

	var b invoice.Balance
	path := "/merchant/" + strconv.FormatInt(merchantID, 10) + "/balance"
	if err := c.do(ctx, "get_merchant_balance", http.MethodGet, path, nil, nil, &b); err != nil {
		return nil, err
	}
	if b.Currency == "" {
		b.Currency = string(invoice.CurrencyRUB)
	}
	return &b, nil
}

func (c *Client) GetPaymentHistory(ctx context.Context, hq invoice.HistoryQuery) (*invoice.History, error) {
	if hq.Limit <= 0 {
		hq.Limit = 100
	}
	if hq.Offset < 0 {
		return nil, domainErrors.NewValidationError("offset", "must not be negative")
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(hq.Limit))
	q.Set("offset", strconv.Itoa(hq.Offset))
	if hq.Type != "" {
		q.Set("type", hq.Type)
	}

	var h invoice.History
	if err := c.do(ctx, "get_payment_history", http.MethodGet, "/me/payments", q, nil, &h); err != nil {
		return nil, err
	}
	if h.Total == 0 {
		h.Total = len(h.Payments)
	}
	return &h, nil
}

func (c *Client) FindPaymentByComment(ctx context.Context, comment string) (*invoice.HistoryItem, error) {
	h, err := c.GetPaymentHistory(ctx, invoice.HistoryQuery{Limit: 50})
	if err != nil {
		return nil, err
	}

	for i := range h.Payments {
		if h.Payments[i].Comment == comment {
			c.logger.Info().
				Int64("history_id", h.Payments[i].ID).
				Str("amount", h.Payments[i].Amount.String()).
				Msg("payment found by comment")
			return &h.Payments[i], nil
		}
	}

	c.logger.Debug().Msg("payment not found by comment")
	return nil, nil
}

// do is the single request primitive every gateway call goes through.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	if c.closed.Load() {
		return domainErrors.ErrClientClosed
	}

	ctx, span := c.tracer.Start(ctx, "gateway."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer span.End()

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
	}

	target := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	start := time.Now()
	opts := []retry.Option{
		retry.WithRetryIf(domainErrors.IsTransient),
		retry.WithRetryAfter(domainErrors.RetryAfter),
		retry.WithOnRetry(func(attempt uint, delay time.Duration, err error) {
			c.logger.Warn().
				Err(err).
				Str("operation", op).
				Uint("attempt", attempt).
				Dur("delay", delay).
				Msg("gateway call failed, retrying")
			span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", int(attempt))))
			if c.metrics != nil {
				c.metrics.GatewayRetries.WithLabelValues(op).Inc()
			}
		}),
	}
	if c.timer != nil {
		opts = append(opts, retry.WithTimer(c.timer))
	}
	r := retry.New(c.retryCfg, opts...)

	raw, err := retry.DoWithResult(ctx, r, func(ctx context.Context) ([]byte, error) {
		return c.attempt(ctx, method, target.String(), payload)
	})

	if c.metrics != nil {
		c.metrics.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		c.metrics.GatewayRequestsTotal.WithLabelValues(op, outcome(err)).Inc()
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error().Err(err).Str("operation", op).Msg("gateway call failed")
		return err
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			err = &domainErrors.APIError{StatusCode: http.StatusOK, Body: "malformed response: " + err.Error()}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return nil
}

// attempt runs one try: rate limiter, breaker, round trip, classification.
func (c *Client) attempt(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, target, payload)
	})

	if c.metrics != nil {
		result := "success"
		switch {
		case isBreakerRejection(err):
			result = "rejected"
		case err != nil:
			result = "failure"
		}
		c.metrics.CircuitBreakerRequests.WithLabelValues(breakerName, result).Inc()
	}

	if isBreakerRejection(err) {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	return raw, err
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	op := method + " " + req.URL.Path

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domainErrors.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domainErrors.NetworkError{Op: op, Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Msg("gateway response")

	if err := classify(resp.StatusCode, resp.Header, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// classify maps a gateway HTTP status to the error taxonomy.
func classify(status int, header http.Header, body []byte) error {
	switch {
	case status < http.StatusBadRequest:
		return nil
	case status == http.StatusUnauthorized:
		return &domainErrors.AuthError{Message: snippet(body, "invalid token")}
	case status == http.StatusTooManyRequests:
		return &domainErrors.RateLimitError{RetryAfter: parseRetryAfter(header.Get("Retry-After"))}
	default:
		return &domainErrors.APIError{StatusCode: status, Body: snippet(body, "")}
	}
}

// parseRetryAfter accepts delta seconds or an HTTP date. A missing or
// unparsable header yields zero, leaving the wait to the backoff schedule.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func snippet(body []byte, fallback string) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return fallback
	}
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}

	var (
		authErr *domainErrors.AuthError
		rateErr *domainErrors.RateLimitError
		netErr  *domainErrors.NetworkError
		apiErr  *domainErrors.APIError
		valErr  *domainErrors.ValidationError
	)
	switch {
	case errors.Is(err, domainErrors.ErrGatewayUnavailable):
		return "unavailable"
	case errors.As(err, &authErr):
		return "auth_error"
	case errors.As(err, &rateErr):
		return "rate_limited"
	case errors.As(err, &netErr):
		return "network_error"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &valErr):
		return "validation_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
