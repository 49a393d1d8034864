package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/lztpay/lztpay/internal/gateway"
	"github.com/lztpay/lztpay/internal/infrastructure/config"
	"github.com/lztpay/lztpay/internal/infrastructure/observability"
	infraRedis "github.com/lztpay/lztpay/internal/infrastructure/redis"
	"github.com/lztpay/lztpay/internal/service"
	"github.com/lztpay/lztpay/internal/storage/memory"
	"github.com/lztpay/lztpay/pkg/retry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Options selects how the process wires its dependencies.
type Options struct {
	ServiceName      string
	MetricsNamespace string
	// ConfigPath is an explicit config file. Empty searches the defaults.
	ConfigPath string
	// Mock replaces the HTTP gateway with the in-memory simulator.
	Mock bool
	// MockPayAfter makes the simulator report an invoice paid on that
	// lookup. Zero never pays.
	MockPayAfter int
	// Console selects the human readable logger.
	Console bool
}

type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Redis    *redis.Client // nil unless redis.enabled
	Gateway  gateway.Gateway
	Store    *memory.Store
	Manager  *service.PaymentManager

	tracer *sdktrace.TracerProvider
	client *gateway.Client
}

func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout)
	if opts.Console {
		logger = observability.InitConsoleLogger(cfg.Observability.LogLevel, os.Stderr)
	}
	logger = logger.With().Str("service", opts.ServiceName).Str("instance", cfg.InstanceID).Logger()
	logger.Debug().Msg("Starting")

	app := &App{Config: cfg, Logger: logger}

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(opts.ServiceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			app.tracer = tp
			logger.Info().Msg("Tracing enabled")
		}
	}

	app.Registry = prometheus.NewRegistry()
	if cfg.Observability.EnableMetrics {
		app.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	app.Metrics = observability.NewMetrics(opts.MetricsNamespace, app.Registry)

	if opts.Mock {
		var mockOpts []gateway.MockOption
		if opts.MockPayAfter > 0 {
			mockOpts = append(mockOpts, gateway.WithPayAfter(opts.MockPayAfter))
		}
		app.Gateway = gateway.NewMockGateway(mockOpts...)
		logger.Warn().Msg("Using in-memory mock gateway")
	} else {
		client, err := gateway.Open(GatewayConfig(cfg),
			gateway.WithRetryConfig(RetryConfig(cfg)),
			gateway.WithLogger(logger),
			gateway.WithMetrics(app.Metrics),
		)
		if err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("open gateway client: %w", err)
		}
		app.client = client
		app.Gateway = client
	}

	var notifier service.Notifier = service.NoopNotifier{}
	if cfg.Redis.Enabled {
		client, err := infraRedis.NewClient(ctx, &cfg.Redis, logger)
		if err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		app.Redis = client
		pub := infraRedis.NewConfirmationPublisher(client, cfg.Redis.Stream, cfg.Redis.StreamMaxLen)
		notifier = pub
		logger.Info().Str("stream", pub.Stream()).Msg("Publishing confirmations to Redis")
	}

	app.Store = memory.NewStore(cfg.Tracking.TTL, memory.WithLogger(logger))
	app.Manager = service.NewPaymentManager(app.Gateway, app.Store, service.PaymentManagerConfig{
		MerchantID:  cfg.Merchant.ID,
		URLSuccess:  cfg.Merchant.URLSuccess,
		URLCallback: cfg.Merchant.URLCallback,
	},
		service.WithNotifier(notifier),
		service.WithLogger(logger),
		service.WithMetrics(app.Metrics),
	)

	return app, nil
}

// Close stops background work and releases every resource New acquired.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Manager != nil {
		errs = append(errs, a.Manager.StopCleanup())
	}
	if a.client != nil {
		errs = append(errs, a.client.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	errs = append(errs, observability.Shutdown(ctx, a.tracer))
	return errors.Join(errs...)
}

// GatewayConfig maps the gateway and breaker sections onto a client config.
func GatewayConfig(cfg *config.Config) gateway.Config {
	return gateway.Config{
		BaseURL:   cfg.Gateway.BaseURL,
		Token:     cfg.Gateway.Token,
		Timeout:   cfg.Gateway.Timeout,
		UserAgent: cfg.Gateway.UserAgent,
		RateLimit: cfg.Gateway.RateLimit,
		RateBurst: cfg.Gateway.RateBurst,
		Breaker: gateway.BreakerConfig{
			MaxRequests:  cfg.CircuitBreaker.MaxRequests,
			Interval:     cfg.CircuitBreaker.Interval,
			Timeout:      cfg.CircuitBreaker.Timeout,
			MinRequests:  cfg.CircuitBreaker.MinRequests,
			FailureRatio: cfg.CircuitBreaker.FailureRatio,
		},
	}
}

func RetryConfig(cfg *config.Config) retry.Config {
	return retry.Config{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		Multiplier:   cfg.Retry.Multiplier,
	}
}
