package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("LED_003", "Transaction entries do not sum to zero", http.StatusUnprocessableEntity),
			expected: "[LED_003] Transaction entries do not sum to zero",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("VAL_004", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestRegistryErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidCurrencyCode", ErrInvalidCurrencyCode("US$"), "VAL_001", 400},
		{"DuplicateCurrencyCode", ErrDuplicateCurrencyCode("BTC"), "VAL_002", 409},
		{"InvalidSubdivision", ErrInvalidSubdivision(-1), "VAL_003", 400},
		{"Validation", Validation("bad input"), "VAL_004", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestLedgerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"RateUnavailable", ErrRateUnavailable("DOGE"), "RATE_001", 503},
		{"StaleRate", ErrStaleRate(), "RATE_002", 409},
		{"InvalidChain", ErrInvalidChain(), "LED_001", 409},
		{"ValueMismatch", ErrValueMismatch(), "LED_002", 422},
		{"UnbalancedTransaction", ErrUnbalancedTransaction(), "LED_003", 422},
		{"InvalidTransactionType", ErrInvalidTransactionType("Bogus"), "LED_004", 400},
		{"EndpointNotAllowed", ErrEndpointNotAllowed("MemberExchange"), "LED_005", 400},
		{"CurrencyReferenced", ErrCurrencyReferenced("USD"), "LED_006", 409},
		{"NotFound", ErrNotFound("member"), "LED_007", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestValidationErrors_CollectsEveryFailure(t *testing.T) {
	v := &ValidationErrors{}
	assert.False(t, v.HasErrors())

	v.Add(ErrStaleRate())
	v.Add(ErrUnbalancedTransaction())

	assert.True(t, v.HasErrors())
	assert.Equal(t, []string{"RATE_002", "LED_003"}, v.Codes())
	assert.Contains(t, v.Error(), "RATE_002")
	assert.Contains(t, v.Error(), "LED_003")
}
