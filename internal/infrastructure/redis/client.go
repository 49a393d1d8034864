package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/lztpay/lztpay/internal/infrastructure/config"
	"github.com/lztpay/lztpay/pkg/retry"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewClient creates a Redis client and pings it until it answers or the
// connect retries run out.
func NewClient(ctx context.Context, cfg *config.RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	r := retry.New(connectRetryConfig(cfg), retry.WithOnRetry(func(attempt uint, delay time.Duration, err error) {
		logger.Warn().
			Err(err).
			Uint("attempt", attempt).
			Dur("delay", delay).
			Str("addr", cfg.RedisAddr()).
			Msg("redis not ready, retrying")
	}))

	err := r.Do(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr(), err)
	}

	return client, nil
}

func connectRetryConfig(cfg *config.RedisConfig) retry.Config {
	attempts := cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 5
	}
	delay := cfg.ConnectRetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return retry.Config{
		MaxAttempts:  uint(attempts),
		InitialDelay: delay,
		MaxDelay:     10 * delay,
		Multiplier:   2,
	}
}
