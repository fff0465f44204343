package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeConfiguration     = "CONFIGURATION_ERROR"
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
	ErrCodeStorage           = "STORAGE_ERROR"
)

// Error constructors

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError() error {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication required",
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(msg string) error {
	return &DomainError{
		Code:    ErrCodeForbidden,
		Message: msg,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: msg,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(msg string) error {
	return &DomainError{
		Code:    ErrCodeBadRequest,
		Message: msg,
	}
}

// NewConfigurationError reports a missing or unreachable external dependency.
// Not retryable without operator intervention.
func NewConfigurationError(msg string, err error) error {
	return &DomainError{
		Code:    ErrCodeConfiguration,
		Message: msg,
		Err:     err,
	}
}

// NewMalformedResponseError reports an external response that could not be used as-is.
// raw is kept verbatim so it can be surfaced in report diagnostics.
func NewMalformedResponseError(msg, raw string, err error) error {
	return &DomainError{
		Code:    ErrCodeMalformedResponse,
		Message: msg,
		Details: map[string]any{"raw_response": raw},
		Err:     err,
	}
}

// NewStorageError reports an object storage upload or download failure
func NewStorageError(op string, err error) error {
	return &DomainError{
		Code:    ErrCodeStorage,
		Message: fmt.Sprintf("storage %s failed", op),
		Err:     err,
	}
}

// Helper functions to check error types

// CodeOf returns the code of the first DomainError in err's chain, or ErrCodeInternal
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}

func hasCode(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsForbidden checks if the error is a forbidden error
func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsMalformedResponse checks if the error is a malformed-response error
func IsMalformedResponse(err error) bool {
	return hasCode(err, ErrCodeMalformedResponse)
}

// IsStorage checks if the error is a storage error
func IsStorage(err error) bool {
	return hasCode(err, ErrCodeStorage)
}
