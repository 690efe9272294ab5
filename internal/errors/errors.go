// Package errors provides custom error types for the brandnft API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code so wrapped copies still compare equal to their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound     = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail   = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrDuplicateAddress = &AppError{Code: "DUPLICATE_ADDRESS", Message: "A user with this address already exists", StatusCode: http.StatusConflict}
	ErrReservedAddress  = &AppError{Code: "ADDRESS_RESERVED", Message: "Address is reserved by the ledger", StatusCode: http.StatusConflict}
)

// Collection and asset registry errors.
var (
	ErrCollectionNotFound = &AppError{Code: "COLLECTION_NOT_FOUND", Message: "Collection has not been created", StatusCode: http.StatusNotFound}
	ErrNotCollectionOwner = &AppError{Code: "NOT_COLLECTION_OWNER", Message: "Caller is not the collection owner", StatusCode: http.StatusForbidden}
	ErrAssetNotFound      = &AppError{Code: "ASSET_NOT_FOUND", Message: "Asset not found", StatusCode: http.StatusNotFound}
	ErrNotAssetOwner      = &AppError{Code: "NOT_ASSET_OWNER", Message: "Caller is not the asset owner", StatusCode: http.StatusForbidden}
)

// Fractionalization errors.
var (
	ErrNotFractionalized      = &AppError{Code: "TOKEN_NOT_FRACTIONALIZED", Message: "Token does not exist", StatusCode: http.StatusNotFound}
	ErrInvalidAssetState      = &AppError{Code: "INVALID_ASSET_STATE", Message: "Operation not allowed in the asset's current state", StatusCode: http.StatusConflict}
	ErrFractionalSaleDisabled = &AppError{Code: "FRACTIONAL_SALE_DISABLED", Message: "Fractional sale is disabled for this asset", StatusCode: http.StatusConflict}
	ErrInsufficientSupply     = &AppError{Code: "INSUFFICIENT_SUPPLY", Message: "Exceeds available shares", StatusCode: http.StatusConflict}
	ErrInsufficientFunds      = &AppError{Code: "INSUFFICIENT_FUNDS", Message: "Insufficient funds", StatusCode: http.StatusPaymentRequired}
	ErrInternalConsistency    = &AppError{Code: "INTERNAL_CONSISTENCY", Message: "Ledger invariant violated", StatusCode: http.StatusInternalServerError}
)

// Share ledger errors.
var (
	ErrShareLedgerNotFound = &AppError{Code: "SHARE_LEDGER_NOT_FOUND", Message: "Share ledger not found", StatusCode: http.StatusNotFound}
	ErrNotLedgerOwner      = &AppError{Code: "NOT_LEDGER_OWNER", Message: "Caller is not the share ledger owner", StatusCode: http.StatusForbidden}
	ErrSupplyFixed         = &AppError{Code: "SUPPLY_FIXED", Message: "Share supply is fixed after creation", StatusCode: http.StatusConflict}
	ErrInsufficientShares  = &AppError{Code: "INSUFFICIENT_SHARES", Message: "Insufficient share balance", StatusCode: http.StatusBadRequest}
	ErrCustodyTransfer     = &AppError{Code: "CUSTODY_TRANSFER_FORBIDDEN", Message: "Custody shares move only through share purchases", StatusCode: http.StatusForbidden}
)

// Wallet errors.
var (
	ErrInsufficientBalance = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient wallet balance", StatusCode: http.StatusPaymentRequired}
	ErrTransferFailed      = &AppError{Code: "TRANSFER_FAILED", Message: "Value transfer failed", StatusCode: http.StatusBadGateway}
)
