package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationRejected creates a guard denial carrying the rejection reason
// ("locked" or "duplicate"). It is raised before any write is attempted.
func NewValidationRejected(reason, message string) *DomainError {
	return &DomainError{
		Code:    "VALIDATION_REJECTED",
		Message: message,
		Reason:  reason,
	}
}

// Common domain errors
var (
	ErrNotFound           = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists      = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput       = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrPermissionDenied   = NewDomainError("PERMISSION_DENIED", "Store rejected the write")
	ErrTransactionAborted = NewDomainError("TRANSACTION_ABORTED", "Atomic update exhausted retries")
	ErrMalformedInput     = NewDomainError("MALFORMED_INPUT", "Record failed structural validation")
	ErrUnauthorized       = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState       = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// CodeOf returns the domain error code for err, or "" when err is not a
// DomainError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ReasonOf returns the rejection reason of a guard denial, or "".
func ReasonOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}
