package controller

import (
	"net/http"
	"time"

	"github.com/lztpay/lztpay/internal/infrastructure/config"
	"github.com/lztpay/lztpay/internal/infrastructure/observability"
	customMW "github.com/lztpay/lztpay/internal/middleware"
	"github.com/lztpay/lztpay/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Manager     *service.PaymentManager
	RedisClient redis.Cmdable
	Metrics     *observability.Metrics
	Gatherer    prometheus.Gatherer
	Logger      zerolog.Logger
	ServiceName string
	Server      config.ServerConfig
	JWTSecret   string
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(customMW.Tracing(deps.ServiceName))
	r.Use(customMW.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: deps.Server.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Manager, deps.RedisClient)
	paymentH := NewPaymentController(deps.Manager, deps.Logger)
	webhookH := NewWebhookController(deps.Manager, deps.Logger)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.With(customMW.RateLimit(deps.Server.RateLimit)).Post("/webhooks/invoice", webhookH.Invoice)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(customMW.RateLimit(deps.Server.RateLimit))
		r.Use(customMW.RequireAuth(deps.JWTSecret))

		r.Post("/invoices", paymentH.CreateInvoice)
		r.Get("/payments/{paymentID}", paymentH.GetPayment)
		r.Post("/payments/{paymentID}/check", paymentH.CheckPayment)
		r.Get("/owners/{ownerID}/payments", paymentH.ListByOwner)
		r.Get("/stats", paymentH.Stats)
		r.Get("/balance", paymentH.Balance)
		r.Get("/history", paymentH.History)
	})

	return r
}
