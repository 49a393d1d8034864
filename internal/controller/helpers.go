package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	domainErrors "github.com/lztpay/lztpay/internal/domain/errors"
	"github.com/lztpay/lztpay/pkg/retry"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrPaymentNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrPaymentTimeout, http.StatusGatewayTimeout, "payment_timeout"},
	{domainErrors.ErrGatewayUnavailable, http.StatusServiceUnavailable, "gateway_unavailable"},
	{domainErrors.ErrClientClosed, http.StatusServiceUnavailable, "gateway_closed"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Gateway failures surface as 502
// or 503 so clients can tell them apart from their own mistakes. Unmapped
// errors are logged and answered with an opaque 500.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			writeJSON(w, m.status, resp)
			return
		}
	}

	var rateErr *domainErrors.RateLimitError
	if errors.As(err, &rateErr) {
		if rateErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Round(time.Second)/time.Second)))
		}
		resp.Code = "gateway_rate_limited"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		resp.Code = "gateway_retries_exhausted"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	var authErr *domainErrors.AuthError
	if errors.As(err, &authErr) {
		resp.Code = "gateway_auth_failed"
		resp.Error = "payment gateway rejected merchant credentials"
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	var netErr *domainErrors.NetworkError
	if errors.As(err, &netErr) {
		resp.Code = "gateway_network_error"
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	var apiErr *domainErrors.APIError
	if errors.As(err, &apiErr) {
		resp.Code = "gateway_error"
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	logger.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domainErrors.NewValidationError(name, "must be an integer")
	}
	return v, nil
}
