package controller

import (
	"net/http"

	"github.com/lztpay/lztpay/internal/service"

	"github.com/rs/zerolog"
)

// WebhookController receives gateway callbacks. A callback is only a hint to
// check now; confirmation always comes from a fresh gateway lookup.
type WebhookController struct {
	manager *service.PaymentManager
	logger  zerolog.Logger
}

func NewWebhookController(manager *service.PaymentManager, logger zerolog.Logger) *WebhookController {
	return &WebhookController{
		manager: manager,
		logger:  logger.With().Str("component", "webhook").Logger(),
	}
}

// Invoice handles POST /webhooks/invoice
//
// Unknown or already confirmed payments are acknowledged with 200 so the
// gateway stops resending. Gateway failures answer 5xx so it retries.
func (h *WebhookController) Invoice(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	conf, err := h.manager.CheckPayment(r.Context(), req.PaymentID)
	switch {
	case service.IsNotFound(err):
		h.logger.Info().
			Str("payment_id", req.PaymentID).
			Int64("invoice_id", req.InvoiceID).
			Msg("callback for untracked payment ignored")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	case err != nil:
		h.logger.Warn().Err(err).Str("payment_id", req.PaymentID).Msg("callback check failed")
		writeError(w, h.logger, err)
	default:
		writeJSON(w, http.StatusOK, checkResponse(req.PaymentID, conf))
	}
}
