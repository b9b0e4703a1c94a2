package apperror

import (
	"fmt"
	"net/http"
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

// ---- Ledger & Settlement (LED) ----

func ErrInvalidAmount() *AppError {
	return New("LED_001", "Invalid amount", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("LED_002", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrInsufficientYieldClaim() *AppError {
	return New("LED_003", "Insufficient yield claim balance", http.StatusPaymentRequired)
}

func ErrNotFound(entity string) *AppError {
	return New("LED_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrUnauthorized() *AppError {
	return New("LED_005", "Caller is not authorized for this operation", http.StatusForbidden)
}

func ErrAlreadyRegistered() *AppError {
	return New("LED_006", "Merchant already registered", http.StatusConflict)
}

func ErrNotRegistered() *AppError {
	return New("LED_007", "Caller is not a registered merchant", http.StatusForbidden)
}

func ErrItemNotAvailable() *AppError {
	return New("LED_008", "Item is not available for purchase", http.StatusConflict)
}

func ErrInvalidItemID() *AppError {
	return New("LED_009", "Invalid item id", http.StatusNotFound)
}

func ErrInvalidPurchaseID() *AppError {
	return New("LED_010", "Invalid purchase id", http.StatusNotFound)
}

func ErrNoFeesToCollect() *AppError {
	return New("LED_011", "No platform fees to collect", http.StatusConflict)
}

func ErrNoPendingPayment() *AppError {
	return New("LED_012", "Merchant has no pending payment", http.StatusConflict)
}

func ErrNothingToDeploy() *AppError {
	return New("LED_013", "Pooled balance is zero", http.StatusConflict)
}

func ErrNoYieldAccrued() *AppError {
	return New("LED_014", "No yield accrued yet", http.StatusConflict)
}

func ErrClaimTooSoon() *AppError {
	return New("LED_015", "Faucet cooldown has not elapsed", http.StatusTooManyRequests)
}

func ErrLiquidityShortfall() *AppError {
	return New("LED_016", "Vault custody cannot cover this withdrawal", http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a LED_001-style validation error.
func Validation(message string) *AppError {
	return New("LED_001", message, http.StatusBadRequest)
}
