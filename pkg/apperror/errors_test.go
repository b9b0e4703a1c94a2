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
			appErr:   New("LED_002", "Insufficient balance", http.StatusPaymentRequired),
			expected: "[LED_002] Insufficient balance",
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
	appErr := New("LED_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestLedgerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidAmount", ErrInvalidAmount(), "LED_001", 400},
		{"InsufficientBalance", ErrInsufficientBalance(), "LED_002", 402},
		{"InsufficientYieldClaim", ErrInsufficientYieldClaim(), "LED_003", 402},
		{"NotFound", ErrNotFound("deposit"), "LED_004", 404},
		{"Unauthorized", ErrUnauthorized(), "LED_005", 403},
		{"AlreadyRegistered", ErrAlreadyRegistered(), "LED_006", 409},
		{"NotRegistered", ErrNotRegistered(), "LED_007", 403},
		{"ItemNotAvailable", ErrItemNotAvailable(), "LED_008", 409},
		{"InvalidItemID", ErrInvalidItemID(), "LED_009", 404},
		{"InvalidPurchaseID", ErrInvalidPurchaseID(), "LED_010", 404},
		{"NoFeesToCollect", ErrNoFeesToCollect(), "LED_011", 409},
		{"NoPendingPayment", ErrNoPendingPayment(), "LED_012", 409},
		{"NothingToDeploy", ErrNothingToDeploy(), "LED_013", 409},
		{"NoYieldAccrued", ErrNoYieldAccrued(), "LED_014", 409},
		{"ClaimTooSoon", ErrClaimTooSoon(), "LED_015", 429},
		{"LiquidityShortfall", ErrLiquidityShortfall(), "LED_016", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAuthAndSystemErrors(t *testing.T) {
	assert.Equal(t, "AUTH_001", ErrInvalidCredentials().Code)
	assert.Equal(t, "AUTH_002", ErrUsernameExists().Code)
	assert.Equal(t, "AUTH_003", ErrInvalidToken().Code)
	assert.Equal(t, "RATE_001", ErrRateLimitExceeded().Code)

	dbErr := ErrDatabaseError(fmt.Errorf("boom"))
	assert.Equal(t, "SYS_001", dbErr.Code)
	assert.Equal(t, http.StatusInternalServerError, dbErr.HTTPStatus)

	encErr := ErrEncryptionFailure(fmt.Errorf("bad key"))
	assert.Equal(t, "SYS_003", encErr.Code)

	assert.Equal(t, "LED_001", Validation("amount must be positive").Code)
}

func TestNotFound_MessageIncludesEntity(t *testing.T) {
	err := ErrNotFound("merchant")
	assert.Contains(t, err.Message, "merchant")
}
