package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainErrors "github.com/lztpay/lztpay/internal/domain/errors"
	"github.com/lztpay/lztpay/pkg/retry"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusCreated, ErrorResponse{Error: "bad", Code: "x"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad","code":"x"}`, w.Body.String())
}

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"validation", domainErrors.NewValidationError("amount", "must be positive"), http.StatusBadRequest, "validation_error"},
		{"not found", domainErrors.NewPaymentNotFoundError("p-1"), http.StatusNotFound, "not_found"},
		{"wrapped not found", fmt.Errorf("check: %w", domainErrors.NewPaymentNotFoundError("p-1")), http.StatusNotFound, "not_found"},
		{"wait timeout", domainErrors.ErrPaymentTimeout, http.StatusGatewayTimeout, "payment_timeout"},
		{"breaker open", fmt.Errorf("%w: circuit breaker is open", domainErrors.ErrGatewayUnavailable), http.StatusServiceUnavailable, "gateway_unavailable"},
		{"client closed", domainErrors.ErrClientClosed, http.StatusServiceUnavailable, "gateway_closed"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{"exhausted", &retry.ExhaustedError{Attempts: 3, Err: &domainErrors.NetworkError{Op: "GET /invoice", Err: errors.New("reset")}}, http.StatusServiceUnavailable, "gateway_retries_exhausted"},
		{"auth", &domainErrors.AuthError{Message: "bad token"}, http.StatusBadGateway, "gateway_auth_failed"},
		{"network", &domainErrors.NetworkError{Op: "GET /invoice", Err: errors.New("reset")}, http.StatusBadGateway, "gateway_network_error"},
		{"api", &domainErrors.APIError{StatusCode: 500}, http.StatusBadGateway, "gateway_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, zerolog.Nop(), tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedCode, resp.Code)
		})
	}
}

func TestWriteError_RateLimitSetsRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, zerolog.Nop(), &retry.ExhaustedError{Attempts: 3, Err: &domainErrors.RateLimitError{RetryAfter: 30 * time.Second}})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "gateway_rate_limited")
}

func TestWriteError_InternalErrorHidesDetails(t *testing.T) {
	var logs bytes.Buffer
	w := httptest.NewRecorder()
	writeError(w, zerolog.New(&logs), errors.New("db password is hunter2"))

	assert.NotContains(t, w.Body.String(), "hunter2")
	assert.Contains(t, logs.String(), "hunter2", "details go to the injected logger")
	assert.Contains(t, logs.String(), `"level":"error"`)
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"amount":"10.5","currency":"usd"}`, ""},
		{"malformed json", `{"amount":`, "body"},
		{"bad currency", `{"amount":1,"currency":"xyz"}`, "Currency"},
		{"lifetime too short", `{"amount":1,"lifetime":10}`, "Lifetime"},
		{"negative owner", `{"amount":1,"owner_id":-1}`, "OwnerID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))

			var dst CreateInvoiceRequest
			err := decodeAndValidate(req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "10.5", dst.Amount.String())
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domainErrors.ErrValidationFailed)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
