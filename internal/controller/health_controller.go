package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/lztpay/lztpay/internal/service"

	"github.com/redis/go-redis/v9"
)

type HealthController struct {
	manager *service.PaymentManager
	redis   redis.Cmdable
}

// NewHealthController creates a HealthController. redis may be nil when the
// confirmation stream is disabled.
func NewHealthController(manager *service.PaymentManager, redis redis.Cmdable) *HealthController {
	return &HealthController{manager: manager, redis: redis}
}

func (h *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.manager.GetStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"tracked":         stats.TotalTracked,
		"cleanup_running": h.manager.CleanupRunning(),
	})
}

func (h *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.redis.Ping(ctx).Err(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "redis unavailable",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
