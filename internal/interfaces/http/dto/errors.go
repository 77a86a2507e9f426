package dto

import (
	"net/http"
	"strings"
)

// Error codes returned in the response envelope. Domain error codes are
// exposed with the ERR_ prefix added (EMPTY_CART becomes ERR_EMPTY_CART).
const codePrefix = "ERR_"

// General error codes
const (
	ErrCodeInternal = "ERR_INTERNAL"
	ErrCodeTimeout  = "ERR_TIMEOUT"
)

// Request error codes
const (
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState       = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock  = "ERR_INSUFFICIENT_STOCK"
	ErrCodeEmptyCart          = "ERR_EMPTY_CART"
	ErrCodeProductUnavailable = "ERR_PRODUCT_UNAVAILABLE"
)

// Payment error codes
const (
	ErrCodePaymentGateway        = "ERR_PAYMENT_GATEWAY"
	ErrCodePaymentAlreadySettled = "ERR_PAYMENT_ALREADY_SETTLED"
	ErrCodePaymentOrderMismatch  = "ERR_PAYMENT_ORDER_MISMATCH"
	ErrCodeCallbackInProgress    = "ERR_CALLBACK_IN_PROGRESS"
)

// Persistence error codes raised by a failed settlement step
const (
	ErrCodeCartReadFailed         = "ERR_CART_READ_FAILED"
	ErrCodeOrderPersistFailed     = "ERR_ORDER_PERSIST_FAILED"
	ErrCodeOrderLinePersistFailed = "ERR_ORDER_LINE_PERSIST_FAILED"
	ErrCodeStockUpdateFailed      = "ERR_STOCK_UPDATE_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeTimeout:  http.StatusGatewayTimeout,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:  http.StatusUnprocessableEntity,
	ErrCodeEmptyCart:          http.StatusUnprocessableEntity,
	ErrCodeProductUnavailable: http.StatusUnprocessableEntity,

	ErrCodePaymentGateway:        http.StatusBadGateway,
	ErrCodePaymentAlreadySettled: http.StatusConflict,
	ErrCodePaymentOrderMismatch:  http.StatusConflict,
	ErrCodeCallbackInProgress:    http.StatusConflict,

	ErrCodeCartReadFailed:         http.StatusInternalServerError,
	ErrCodeOrderPersistFailed:     http.StatusInternalServerError,
	ErrCodeOrderLinePersistFailed: http.StatusInternalServerError,
	ErrCodeStockUpdateFailed:      http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code, or fallback
// when the code is not listed
func GetHTTPStatus(code string, fallback int) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return fallback
}

// NormalizeErrorCode converts a domain error code to the response format
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeInternal
	}
	if strings.HasPrefix(code, codePrefix) {
		return code
	}
	return codePrefix + code
}
