package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lztpay/lztpay/internal/gateway"
	"github.com/lztpay/lztpay/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNew_MockGateway(t *testing.T) {
	path := writeConfig(t, `
merchant:
  id: 42
  url_success: https://shop.example.com/ok
tracking:
  ttl: 2h
observability:
  log_level: disabled
`)

	app, err := New(context.Background(), Options{ServiceName: "test", MetricsNamespace: "test", ConfigPath: path, Mock: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	assert.IsType(t, &gateway.MockGateway{}, app.Gateway)
	assert.Nil(t, app.Redis)
	assert.Equal(t, 2*time.Hour, app.Store.TTL())

	s, err := app.Manager.CreateInvoice(context.Background(), serviceRequest("order-1"))
	require.NoError(t, err)
	assert.Equal(t, "order-1", s.PaymentID)
	assert.Equal(t, 1, app.Manager.GetStats().TotalTracked)
}

func TestNew_RealGatewayRequiresToken(t *testing.T) {
	path := writeConfig(t, "observability:\n  log_level: disabled\n")

	_, err := New(context.Background(), Options{ServiceName: "test", MetricsNamespace: "test", ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestNew_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "retry:\n  multiplier: 0.5\n")

	_, err := New(context.Background(), Options{ConfigPath: path, Mock: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.multiplier")
}

func TestConfigMapping(t *testing.T) {
	path := writeConfig(t, `
gateway:
  token: secret
  rate_limit: 5
retry:
  max_attempts: 4
  initial_delay: 2s
circuit_breaker:
  failure_ratio: 0.5
`)
	app, err := New(context.Background(), Options{ConfigPath: path, MetricsNamespace: "test", Mock: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	gc := GatewayConfig(app.Config)
	assert.Equal(t, "secret", gc.Token)
	assert.Equal(t, 5.0, gc.RateLimit)
	assert.Equal(t, 0.5, gc.Breaker.FailureRatio)

	rc := RetryConfig(app.Config)
	assert.Equal(t, uint(4), rc.MaxAttempts)
	assert.Equal(t, 2*time.Second, rc.InitialDelay)
	assert.Equal(t, 2.0, rc.Multiplier)
}

func TestClose_Idempotent(t *testing.T) {
	path := writeConfig(t, "gateway:\n  token: secret\n")
	app, err := New(context.Background(), Options{ConfigPath: path, MetricsNamespace: "test"})
	require.NoError(t, err)

	require.NoError(t, app.Manager.StartCleanup(context.Background(), time.Minute))
	assert.NoError(t, app.Close(context.Background()))
	assert.NoError(t, app.Close(context.Background()))
}

func serviceRequest(id string) service.CreateInvoiceRequest {
	return service.CreateInvoiceRequest{PaymentID: id, Amount: decimal.NewFromInt(100)}
}
