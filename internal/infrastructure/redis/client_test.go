package redis

import (
	"context"
	"testing"
	"time"

	"github.com/lztpay/lztpay/internal/infrastructure/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRetryConfig_Defaults(t *testing.T) {
	cfg := connectRetryConfig(&config.RedisConfig{})

	assert.Equal(t, uint(5), cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.Multiplier)
}

func TestConnectRetryConfig_FromConfig(t *testing.T) {
	cfg := connectRetryConfig(&config.RedisConfig{ConnectRetries: 2, ConnectRetryDelay: 50 * time.Millisecond})

	assert.Equal(t, uint(2), cfg.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.InitialDelay)
}

func TestNewClient_Unreachable(t *testing.T) {
	cfg := &config.RedisConfig{
		Host:              "127.0.0.1",
		Port:              1,
		ConnectRetries:    2,
		ConnectRetryDelay: time.Millisecond,
	}

	client, err := NewClient(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
