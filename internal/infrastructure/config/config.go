package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Merchant       MerchantConfig       `mapstructure:"merchant"`
	Tracking       TrackingConfig       `mapstructure:"tracking"`
	Gateway        GatewayConfig        `mapstructure:"gateway"`
	Retry          RetryConfig          `mapstructure:"retry"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Server         ServerConfig         `mapstructure:"server"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Auth           AuthConfig           `mapstructure:"auth"`
	InstanceID     string               `mapstructure:"instance_id"`
}

type MerchantConfig struct {
	ID          int64  `mapstructure:"id"`
	URLSuccess  string `mapstructure:"url_success"`
	URLCallback string `mapstructure:"url_callback"`
}

type TrackingConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type GatewayConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Token     string        `mapstructure:"token"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	RateLimit float64       `mapstructure:"rate_limit"`
	RateBurst int           `mapstructure:"rate_burst"`
}

type RetryConfig struct {
	MaxAttempts  uint          `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
}

type CircuitBreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       int           `mapstructure:"rate_limit"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTExpiry time.Duration `mapstructure:"jwt_expiry"`
}

type RedisConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	DB                int           `mapstructure:"db"`
	Password          string        `mapstructure:"password"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
	Stream            string        `mapstructure:"stream"`
	StreamMaxLen      int64         `mapstructure:"stream_max_len"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// Load reads configuration from defaults, an optional config file and
// LZTPAY_ prefixed environment variables, in increasing precedence.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("LZTPAY")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/lztpay")

		// Config file is optional
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Merchant.ID < 0 {
		errs = append(errs, fmt.Errorf("merchant.id must not be negative"))
	}
	if c.Merchant.URLSuccess != "" && !isAbsoluteURL(c.Merchant.URLSuccess) {
		errs = append(errs, fmt.Errorf("merchant.url_success must be an absolute URL"))
	}
	if c.Merchant.URLCallback != "" && !isAbsoluteURL(c.Merchant.URLCallback) {
		errs = append(errs, fmt.Errorf("merchant.url_callback must be an absolute URL"))
	}
	if c.Tracking.TTL <= 0 {
		errs = append(errs, fmt.Errorf("tracking.ttl must be positive"))
	}
	if c.Tracking.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("tracking.cleanup_interval must be positive"))
	}
	if !isAbsoluteURL(c.Gateway.BaseURL) {
		errs = append(errs, fmt.Errorf("gateway.base_url must be an absolute URL"))
	}
	if c.Gateway.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("gateway.timeout must be positive"))
	}
	if c.Gateway.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("gateway.rate_limit must not be negative"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1"))
	}
	if c.Retry.InitialDelay <= 0 {
		errs = append(errs, fmt.Errorf("retry.initial_delay must be positive"))
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		errs = append(errs, fmt.Errorf("retry.max_delay must not be below retry.initial_delay"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, fmt.Errorf("retry.multiplier must be at least 1, got %g", c.Retry.Multiplier))
	}
	if c.CircuitBreaker.FailureRatio <= 0 || c.CircuitBreaker.FailureRatio > 1 {
		errs = append(errs, fmt.Errorf("circuit_breaker.failure_ratio must be in (0, 1]"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if c.Redis.Enabled {
		if c.Redis.Port <= 0 {
			errs = append(errs, fmt.Errorf("redis.port must be positive"))
		}
		if c.Redis.Stream == "" {
			errs = append(errs, fmt.Errorf("redis.stream is required when redis is enabled"))
		}
	}

	// Production environment checks
	env := os.Getenv("ENV")
	if env == "production" || env == "prod" {
		if c.Gateway.Token == "" {
			errs = append(errs, fmt.Errorf("gateway.token required in production"))
		}
		if c.Auth.JWTSecret == "" {
			errs = append(errs, fmt.Errorf("auth.jwt_secret required in production"))
		}
	}

	// JWT secret length validation
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least 32 characters"))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	// Merchant defaults
	v.SetDefault("merchant.id", 0)
	v.SetDefault("merchant.url_success", "")
	v.SetDefault("merchant.url_callback", "")

	// Tracking defaults
	v.SetDefault("tracking.ttl", "1h")
	v.SetDefault("tracking.cleanup_interval", "5m")

	// Gateway defaults
	v.SetDefault("gateway.base_url", "https://prod-api.lzt.market")
	v.SetDefault("gateway.token", "")
	v.SetDefault("gateway.timeout", "30s")
	v.SetDefault("gateway.user_agent", "lztpay-go")
	v.SetDefault("gateway.rate_limit", 0)
	v.SetDefault("gateway.rate_burst", 1)

	// Retry defaults
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay", "1s")
	v.SetDefault("retry.max_delay", "30s")
	v.SetDefault("retry.multiplier", 2.0)

	// Circuit breaker defaults
	v.SetDefault("circuit_breaker.max_requests", 10)
	v.SetDefault("circuit_breaker.interval", "60s")
	v.SetDefault("circuit_breaker.timeout", "30s")
	v.SetDefault("circuit_breaker.min_requests", 10)
	v.SetDefault("circuit_breaker.failure_ratio", 0.6)

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.connect_retries", 5)
	v.SetDefault("redis.connect_retry_delay", "1s")
	v.SetDefault("redis.stream", "payments:confirmed")
	v.SetDefault("redis.stream_max_len", 100000)

	// Observability defaults
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", false)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiry", "24h")

	// Instance ID
	v.SetDefault("instance_id", "lztpay-1")
}

func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
