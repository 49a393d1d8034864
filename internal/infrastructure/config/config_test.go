package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Merchant: MerchantConfig{
			ID:         42,
			URLSuccess: "https://shop.example.com/success",
		},
		Tracking: TrackingConfig{
			TTL:             time.Hour,
			CleanupInterval: 5 * time.Minute,
		},
		Gateway: GatewayConfig{
			BaseURL: "https://prod-api.lzt.market",
			Timeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		},
		CircuitBreaker: CircuitBreakerConfig{FailureRatio: 0.6},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port too low", 0},
		{"port negative", -1},
		{"port too high", 99999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "server.port")
		})
	}
}

func TestConfig_Validate_Tracking(t *testing.T) {
	cfg := validConfig()
	cfg.Tracking.TTL = 0
	cfg.Tracking.CleanupInterval = -time.Second

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracking.ttl")
	assert.Contains(t, err.Error(), "tracking.cleanup_interval")
}

func TestConfig_Validate_Retry(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RetryConfig)
		want   string
	}{
		{"zero attempts", func(r *RetryConfig) { r.MaxAttempts = 0 }, "retry.max_attempts"},
		{"zero initial delay", func(r *RetryConfig) { r.InitialDelay = 0 }, "retry.initial_delay"},
		{"max below initial", func(r *RetryConfig) { r.MaxDelay = 500 * time.Millisecond }, "retry.max_delay"},
		{"shrinking multiplier", func(r *RetryConfig) { r.Multiplier = 0.5 }, "retry.multiplier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg.Retry)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_Validate_URLs(t *testing.T) {
	cfg := validConfig()
	cfg.Merchant.URLSuccess = "/relative"
	cfg.Merchant.URLCallback = "nope"
	cfg.Gateway.BaseURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merchant.url_success")
	assert.Contains(t, err.Error(), "merchant.url_callback")
	assert.Contains(t, err.Error(), "gateway.base_url")
}

func TestConfig_Validate_BreakerRatio(t *testing.T) {
	for _, ratio := range []float64{0, -0.1, 1.5} {
		cfg := validConfig()
		cfg.CircuitBreaker.FailureRatio = ratio
		assert.ErrorContains(t, cfg.Validate(), "circuit_breaker.failure_ratio")
	}
}

func TestConfig_Validate_RedisOnlyWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Redis = RedisConfig{Port: 0}
	assert.NoError(t, cfg.Validate(), "disabled redis is not validated")

	cfg.Redis.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.port")
	assert.Contains(t, err.Error(), "redis.stream")
}

func TestConfig_Validate_JWTSecretLength(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"
	assert.ErrorContains(t, cfg.Validate(), "auth.jwt_secret")

	cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_Production(t *testing.T) {
	t.Setenv("ENV", "production")

	err := validConfig().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway.token")
	assert.Contains(t, err.Error(), "auth.jwt_secret")
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "server.port")
	assert.Contains(t, errStr, "read_timeout")
	assert.Contains(t, errStr, "write_timeout")
	assert.Contains(t, errStr, "tracking.ttl")
	assert.Contains(t, errStr, "gateway.base_url")
	assert.Contains(t, errStr, "retry.max_attempts")
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Tracking.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Tracking.CleanupInterval)
	assert.Equal(t, "https://prod-api.lzt.market", cfg.Gateway.BaseURL)
	assert.Equal(t, uint(3), cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 0.6, cfg.CircuitBreaker.FailureRatio)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "payments:confirmed", cfg.Redis.Stream)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LZTPAY_MERCHANT_ID", "777")
	t.Setenv("LZTPAY_GATEWAY_TOKEN", "tok")
	t.Setenv("LZTPAY_TRACKING_TTL", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(777), cfg.Merchant.ID)
	assert.Equal(t, "tok", cfg.Gateway.Token)
	assert.Equal(t, 2*time.Second, cfg.Tracking.TTL)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lztpay.yaml")
	yaml := `
merchant:
  id: 12
  url_success: https://shop.example.com/ok
tracking:
  ttl: 10m
retry:
  max_attempts: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, int64(12), cfg.Merchant.ID)
	assert.Equal(t, "https://shop.example.com/ok", cfg.Merchant.URLSuccess)
	assert.Equal(t, 10*time.Minute, cfg.Tracking.TTL)
	assert.Equal(t, uint(5), cfg.Retry.MaxAttempts)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.example.com", Port: 6380}
	assert.Equal(t, "redis.example.com:6380", cfg.RedisAddr())
}
