package controller

import (
	"net/http"
	"strconv"

	domainErrors "github.com/lztpay/lztpay/internal/domain/errors"
	"github.com/lztpay/lztpay/internal/domain/invoice"
	"github.com/lztpay/lztpay/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PaymentController handles invoice and payment HTTP requests.
type PaymentController struct {
	manager *service.PaymentManager
	logger  zerolog.Logger
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(manager *service.PaymentManager, logger zerolog.Logger) *PaymentController {
	return &PaymentController{
		manager: manager,
		logger:  logger.With().Str("component", "payment_controller").Logger(),
	}
}

// CreateInvoice handles POST /api/v1/invoices
func (h *PaymentController) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, h.logger, domainErrors.NewValidationError("amount", "must be positive"))
		return
	}

	summary, err := h.manager.CreateInvoice(r.Context(), service.CreateInvoiceRequest{
		PaymentID:      req.PaymentID,
		Amount:         req.Amount,
		Currency:       invoice.Currency(req.Currency),
		OwnerID:        req.OwnerID,
		Comment:        req.Comment,
		Lifetime:       req.Lifetime,
		AdditionalData: req.AdditionalData,
		IsTest:         req.IsTest,
		Extra:          req.Extra,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

// GetPayment handles GET /api/v1/payments/{paymentID}
func (h *PaymentController) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentID")

	rec, ok := h.manager.GetPaymentInfo(id)
	if !ok {
		writeError(w, h.logger, domainErrors.NewPaymentNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, FromRecord(rec))
}

// CheckPayment handles POST /api/v1/payments/{paymentID}/check
func (h *PaymentController) CheckPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentID")

	conf, err := h.manager.CheckPayment(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, checkResponse(id, conf))
}

// ListByOwner handles GET /api/v1/owners/{ownerID}/payments
func (h *PaymentController) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(chi.URLParam(r, "ownerID"), 10, 64)
	if err != nil {
		writeError(w, h.logger, domainErrors.NewValidationError("owner_id", "must be an integer"))
		return
	}

	records := h.manager.PaymentsByOwner(ownerID)
	items := make([]PaymentResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, FromRecord(rec))
	}
	writeJSON(w, http.StatusOK, ListResponse[PaymentResponse]{Items: items, Total: len(items)})
}

// Stats handles GET /api/v1/stats
func (h *PaymentController) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.GetStats())
}

// Balance handles GET /api/v1/balance. ?merchant_id selects a merchant
// balance instead of the account balance.
func (h *PaymentController) Balance(w http.ResponseWriter, r *http.Request) {
	var merchantID int64
	if raw := r.URL.Query().Get("merchant_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, h.logger, domainErrors.NewValidationError("merchant_id", "must be a positive integer"))
			return
		}
		merchantID = id
	}

	bal, err := h.manager.Balance(r.Context(), merchantID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

// History handles GET /api/v1/history
func (h *PaymentController) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	hist, err := h.manager.History(r.Context(), invoice.HistoryQuery{
		Limit:  limit,
		Offset: offset,
		Type:   r.URL.Query().Get("type"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}
