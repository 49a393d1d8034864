package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/avast/retry-go/v4"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig returns default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Backoff returns the wait after the given number of failed attempts
// (attempts >= 1): InitialDelay * Multiplier^(attempts-1), capped at MaxDelay.
func (c Config) Backoff(attempts uint) time.Duration {
	if attempts == 0 {
		attempts = 1
	}
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempts-1))
	if c.MaxDelay > 0 && d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Timer lets tests observe and skip backoff waits.
type Timer interface {
	After(time.Duration) <-chan time.Time
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts uint
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Retrier runs one operation with exponential backoff on retryable errors.
type Retrier struct {
	cfg        Config
	retryIf    func(error) bool
	onRetry    func(attempt uint, delay time.Duration, err error)
	retryAfter func(error) (time.Duration, bool)
	timer      Timer
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithRetryIf sets the predicate deciding whether an error is retried.
func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) { r.retryIf = fn }
}

// WithOnRetry registers a hook called before every backoff wait.
func WithOnRetry(fn func(attempt uint, delay time.Duration, err error)) Option {
	return func(r *Retrier) { r.onRetry = fn }
}

// WithRetryAfter extracts a server supplied minimum wait from an error.
func WithRetryAfter(fn func(error) (time.Duration, bool)) Option {
	return func(r *Retrier) { r.retryAfter = fn }
}

// WithTimer replaces the real timer.
func WithTimer(t Timer) Option {
	return func(r *Retrier) { r.timer = t }
}

// New creates a Retrier. Zero config fields fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Retrier {
	def := DefaultConfig()
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = def.Multiplier
	}

	r := &Retrier{
		cfg:        cfg,
		retryIf:    func(error) bool { return true },
		onRetry:    func(uint, time.Duration, error) {},
		retryAfter: func(error) (time.Duration, bool) { return 0, false },
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Config returns the effective configuration.
func (r *Retrier) Config() Config {
	return r.cfg
}

// Do executes op, retrying retryable failures with exponential backoff.
// Non-retryable errors are returned unchanged after a single attempt.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var (
		attempts uint
		prev     time.Duration
	)

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(r.cfg.MaxAttempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(r.retryIf),
		retry.DelayType(func(_ uint, err error, _ *retry.Config) time.Duration {
			d := r.wait(attempts, prev, err)
			prev = d
			r.onRetry(attempts, d, err)
			return d
		}),
	}
	if r.timer != nil {
		opts = append(opts, retry.WithTimer(r.timer))
	}

	err := retry.Do(func() error {
		attempts++
		return op(ctx)
	}, opts...)

	if err != nil && attempts >= r.cfg.MaxAttempts && r.retryIf(err) {
		return &ExhaustedError{Attempts: attempts, Err: err}
	}
	return err
}

// wait picks the next delay: the exponential backoff, raised by a server
// hint, and always longer than the previous delay until MaxDelay is reached.
func (r *Retrier) wait(attempts uint, prev time.Duration, err error) time.Duration {
	d := r.cfg.Backoff(attempts)
	if hint, ok := r.retryAfter(err); ok && hint > d {
		d = hint
	}
	if prev > 0 && d <= prev {
		grown := time.Duration(float64(prev) * r.cfg.Multiplier)
		if grown <= prev {
			grown = prev + r.cfg.InitialDelay
		}
		d = grown
	}
	if r.cfg.MaxDelay > 0 && d > r.cfg.MaxDelay {
		d = r.cfg.MaxDelay
	}
	return d
}

// DoWithResult executes a function with exponential backoff retry and returns a result
func DoWithResult[T any](ctx context.Context, r *Retrier, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}
