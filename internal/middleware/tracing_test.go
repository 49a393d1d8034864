package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestTracing_NamesSpanAfterRoute(t *testing.T) {
	rec := withRecorder(t)

	r := chi.NewRouter()
	r.Use(Tracing("lztpay"))
	r.Get("/api/v1/payments/{paymentID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments/p-1", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/payments/{paymentID}", spans[0].Name())
}

func TestTracing_NamesSpanBehindContextRewrite(t *testing.T) {
	rec := withRecorder(t)

	r := chi.NewRouter()
	r.Use(Tracing("lztpay"))
	r.Use(chimw.Timeout(time.Minute))
	r.Post("/webhooks/invoice", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/invoice", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /webhooks/invoice", spans[0].Name())
}

func TestTracing_UnmatchedRoute(t *testing.T) {
	rec := withRecorder(t)

	h := Tracing("lztpay")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST unmatched", spans[0].Name())
}
