package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError carrying the same code, so that
// errors created with NewDomainError match the package sentinels.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)

// ErrorKind classifies failures returned across service boundaries
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindPersistence  ErrorKind = "persistence"
	KindCompensation ErrorKind = "compensation"
	KindGateway      ErrorKind = "gateway"
	KindUnknown      ErrorKind = "unknown"
)

type kinded interface {
	Kind() ErrorKind
}

// KindOf returns the ErrorKind carried by err or any error it wraps.
// Plain domain errors are validation failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	var de *DomainError
	if errors.As(err, &de) {
		return KindValidation
	}
	return KindUnknown
}
