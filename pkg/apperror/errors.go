package apperror

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ValidationErrors collects every invariant a rejected transaction violated.
// The engine runs all checks instead of stopping at the first failure, so a
// caller sees every problem at once.
type ValidationErrors struct {
	Errors []*AppError `json:"errors"`
}

func (v *ValidationErrors) Error() string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Add appends a violation to the list.
func (v *ValidationErrors) Add(err *AppError) {
	v.Errors = append(v.Errors, err)
}

// HasErrors reports whether any check failed.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Codes returns the error codes in order, for logging and metrics.
func (v *ValidationErrors) Codes() []string {
	codes := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		codes[i] = e.Code
	}
	return codes
}

// ---- Registry Validation (VAL) ----

func ErrInvalidCurrencyCode(code string) *AppError {
	return New("VAL_001", fmt.Sprintf("Currency code %q may only contain letters, digits, '.' and '_'", code), http.StatusBadRequest)
}

func ErrDuplicateCurrencyCode(code string) *AppError {
	return New("VAL_002", fmt.Sprintf("Currency code %q already registered", code), http.StatusConflict)
}

func ErrInvalidSubdivision(subdivision int32) *AppError {
	return New("VAL_003", fmt.Sprintf("Subdivision must be non-negative, got %d", subdivision), http.StatusBadRequest)
}

// Validation returns a VAL_004 malformed-input error.
func Validation(message string) *AppError {
	return New("VAL_004", message, http.StatusBadRequest)
}

// ---- Rates (RATE) ----

func ErrRateUnavailable(code string) *AppError {
	return New("RATE_001", fmt.Sprintf("No market rate available for %s", code), http.StatusServiceUnavailable)
}

func ErrRateUnavailableWrap(code string, err error) *AppError {
	return Wrap("RATE_001", fmt.Sprintf("No market rate available for %s", code), http.StatusServiceUnavailable, err)
}

func ErrStaleRate() *AppError {
	return New("RATE_002", "Rate has changed. Please resubmit after checking the new rate", http.StatusConflict)
}

// ---- Ledger Invariants (LED) ----

func ErrInvalidChain() *AppError {
	return New("LED_001", "Previous transaction is no longer the latest for this account. Recompute and retry", http.StatusConflict)
}

func ErrValueMismatch() *AppError {
	return New("LED_002", "Source and destination legs do not agree in value", http.StatusUnprocessableEntity)
}

func ErrUnbalancedTransaction() *AppError {
	return New("LED_003", "Transaction entries do not sum to zero", http.StatusUnprocessableEntity)
}

func ErrInvalidTransactionType(txType string) *AppError {
	return New("LED_004", fmt.Sprintf("Unknown transaction type %q", txType), http.StatusBadRequest)
}

func ErrMissingInitiator() *AppError {
	return New("LED_004", "Transaction must carry an initiating member", http.StatusBadRequest)
}

func ErrEndpointNotAllowed(txType string) *AppError {
	return New("LED_005", fmt.Sprintf("Source/destination combination is not valid for %s", txType), http.StatusBadRequest)
}

func ErrCurrencyReferenced(code string) *AppError {
	return New("LED_006", fmt.Sprintf("Currency %s is referenced by the ledger and cannot be removed", code), http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("LED_007", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}
