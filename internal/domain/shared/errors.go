package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError so callers can decide whether to retry,
// surface the error to a user, or escalate to an operator.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindRetryExhausted ErrorKind = "retry_exhausted"
	KindConfiguration  ErrorKind = "configuration"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Kind    ErrorKind `json:"kind"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches domain errors by code so sentinel comparisons survive wrapping
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new validation-kind domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindValidation,
	}
}

// NewValidationError creates a field-scoped, user-correctable error
func NewValidationError(field, code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Field:   field,
		Kind:    KindValidation,
	}
}

// NewInvalidTransitionError reports a status change outside the allowed table
func NewInvalidTransitionError(resource, from, to string) *DomainError {
	return &DomainError{
		Code:    "INVALID_TRANSITION",
		Message: fmt.Sprintf("cannot transition %s from %s to %s", resource, from, to),
		Field:   "status",
		Kind:    KindValidation,
	}
}

// NewNotFoundError reports a missing or inaccessible resource
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Kind:    KindNotFound,
	}
}

// NewConfigurationError reports a setup problem that an operator must fix
func NewConfigurationError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindConfiguration,
	}
}

// NewRetryExhaustedError wraps the last conflict after all attempts failed
func NewRetryExhaustedError(operation string, attempts int, cause error) *DomainError {
	return &DomainError{
		Code:    "RETRY_EXHAUSTED",
		Message: fmt.Sprintf("%s failed after %d attempts", operation, attempts),
		Kind:    KindRetryExhausted,
		cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound            = &DomainError{Code: "NOT_FOUND", Message: "Resource not found", Kind: KindNotFound}
	ErrUniqueViolation     = &DomainError{Code: "UNIQUE_VIOLATION", Message: "Unique constraint violated", Kind: KindConflict}
	ErrConcurrencyConflict = &DomainError{Code: "CONCURRENCY_CONFLICT", Message: "Resource was modified by another process", Kind: KindConflict}
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// KindOf returns the kind of the first DomainError in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

func isKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsValidation reports whether err is a user-correctable validation error
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsConfiguration reports whether err is a fatal configuration error
func IsConfiguration(err error) bool { return isKind(err, KindConfiguration) }

// IsRetryExhausted reports whether err escalated after bounded retries
func IsRetryExhausted(err error) bool { return isKind(err, KindRetryExhausted) }

// IsUniqueViolation reports whether err signals a unique constraint collision
func IsUniqueViolation(err error) bool { return errors.Is(err, ErrUniqueViolation) }
