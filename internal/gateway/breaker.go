package gateway

import (
	"errors"
	"net/http"

	domainErrors "github.com/lztpay/lztpay/internal/domain/errors"
	"github.com/lztpay/lztpay/internal/infrastructure/observability"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const breakerName = "lzt-gateway"

func newBreaker(cfg BreakerConfig, logger zerolog.Logger, metrics *observability.Metrics) *gobreaker.CircuitBreaker[[]byte] {
	if metrics != nil {
		metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(stateValue(gobreaker.StateClosed))
	}

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests || counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			if metrics != nil {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			}
		},
	})
}

// countsAsSuccess keeps caller mistakes (bad input, auth, 4xx) from tripping
// the breaker. Only transport trouble and server errors count against it.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if domainErrors.IsTransient(err) {
		return false
	}
	var apiErr *domainErrors.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusInternalServerError {
		return false
	}
	return true
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
