package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lztpay/lztpay/internal/domain/payment"
	"github.com/lztpay/lztpay/internal/infrastructure/observability"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ErrAlreadyRunning is returned by Start when the loop is active.
var ErrAlreadyRunning = errors.New("cleanup scheduler already running")

// Sweeper removes expired entries and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

type statsSource interface {
	Stats() payment.Stats
}

// CleanupScheduler periodically sweeps expired payments in the background.
type CleanupScheduler struct {
	sweeper  Sweeper
	interval time.Duration
	clock    clockwork.Clock
	logger   zerolog.Logger
	metrics  *observability.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

type Option func(*CleanupScheduler)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *CleanupScheduler) { s.logger = logger }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *CleanupScheduler) { s.metrics = m }
}

// WithClock sets the clock that drives the sweep ticker.
func WithClock(clock clockwork.Clock) Option {
	return func(s *CleanupScheduler) { s.clock = clock }
}

func NewCleanupScheduler(sweeper Sweeper, interval time.Duration, opts ...Option) *CleanupScheduler {
	s := &CleanupScheduler{
		sweeper:  sweeper,
		interval: interval,
		clock:    clockwork.NewRealClock(),
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With().Str("component", "cleanup").Logger()
	return s
}

// Start launches the sweep loop. It runs until ctx is done or Stop is called.
func (s *CleanupScheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %s", s.interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.err = nil

	go func() {
		defer close(done)
		err := s.run(runCtx)

		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}()

	s.logger.Info().Dur("interval", s.interval).Msg("cleanup task started")
	return nil
}

// Stop cancels the loop and waits for it to exit. Cancellation is not an
// error; anything else that ended the loop is returned.
func (s *CleanupScheduler) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.cancel, s.done, s.err = nil, nil, nil

	s.logger.Info().Msg("cleanup task stopped")
	return err
}

// Running reports whether the loop has been started and not yet stopped.
func (s *CleanupScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *CleanupScheduler) run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); !errors.Is(err, context.Canceled) {
				s.logger.Error().Err(err).Msg("cleanup task aborted")
				return err
			}
			return nil
		case <-ticker.Chan():
		}

		if err := s.sweepOnce(); err != nil {
			s.logger.Error().Err(err).Msg("cleanup task failed")
			return err
		}
	}
}

func (s *CleanupScheduler) sweepOnce() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cleanup sweep panicked: %v", r)
		}
	}()

	removed := s.sweeper.Sweep()
	if removed > 0 {
		s.logger.Info().Int("count", removed).Msg("cleaned up expired payments")
	}

	if s.metrics != nil {
		s.metrics.PaymentsSwept.Add(float64(removed))
		if src, ok := s.sweeper.(statsSource); ok {
			s.metrics.TrackedPayments.Set(float64(src.Stats().TotalTracked))
		}
	}
	return nil
}
