package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Gateway metrics
	GatewayRequestsTotal   *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec
	GatewayRetries         *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState    *prometheus.GaugeVec
	CircuitBreakerRequests *prometheus.CounterVec

	// Payment lifecycle metrics
	InvoicesCreated        *prometheus.CounterVec
	PaymentChecks          *prometheus.CounterVec
	PaymentsConfirmed      prometheus.Counter
	TrackedPayments        prometheus.Gauge
	PaymentsSwept          prometheus.Counter
	TrackingTTLShort       prometheus.Counter
	ConfirmationsPublished *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		GatewayRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Total number of gateway calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		GatewayRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_request_duration_seconds",
				Help:      "Gateway call duration in seconds, retries included",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
		GatewayRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_retries_total",
				Help:      "Total number of gateway retries",
			},
			[]string{"operation"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		CircuitBreakerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_requests_total",
				Help:      "Total number of circuit breaker requests",
			},
			[]string{"name", "result"},
		),
		InvoicesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoices_created_total",
				Help:      "Total number of invoices created",
			},
			[]string{"currency"},
		),
		PaymentChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_checks_total",
				Help:      "Total number of payment status checks by result",
			},
			[]string{"result"},
		),
		PaymentsConfirmed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_confirmed_total",
				Help:      "Total number of payments confirmed as paid",
			},
		),
		TrackedPayments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tracked_payments",
				Help:      "Number of payments currently tracked locally",
			},
		),
		PaymentsSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_swept_total",
				Help:      "Total number of expired payments removed by cleanup",
			},
		),
		TrackingTTLShort: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tracking_ttl_short_total",
				Help:      "Invoices whose gateway lifetime outlives the local tracking TTL",
			},
		),
		ConfirmationsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "confirmations_published_total",
				Help:      "Total number of confirmation events published",
			},
			[]string{"status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	// Register all collectors
	reg.MustRegister(
		m.GatewayRequestsTotal,
		m.GatewayRequestDuration,
		m.GatewayRetries,
		m.CircuitBreakerState,
		m.CircuitBreakerRequests,
		m.InvoicesCreated,
		m.PaymentChecks,
		m.PaymentsConfirmed,
		m.TrackedPayments,
		m.PaymentsSwept,
		m.TrackingTTLShort,
		m.ConfirmationsPublished,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}
