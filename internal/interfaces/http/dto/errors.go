package dto

import "net/http"

// Domain error codes surfaced over HTTP. These are the codes the domain
// and application layers raise; the handlers pass them through verbatim so
// clients can branch on them.
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAlreadyExists      = "ALREADY_EXISTS"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodePermissionDenied   = "PERMISSION_DENIED"
	ErrCodeValidationRejected = "VALIDATION_REJECTED"
	ErrCodeTransactionAborted = "TRANSACTION_ABORTED"
	ErrCodeMalformedInput     = "MALFORMED_INPUT"
	ErrCodeNoHeader           = "NO_HEADER"
	ErrCodeNoItems            = "NO_ITEMS"
	ErrCodeInvalidPolicy      = "INVALID_POLICY"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeNotFound: http.StatusNotFound,

	// Write conflicts
	ErrCodeAlreadyExists:      http.StatusConflict,
	ErrCodeValidationRejected: http.StatusConflict,

	// Supervisor actions rejected by the PIN check. 403 rather than 401:
	// the caller is known, the credential is wrong.
	ErrCodeUnauthorized: http.StatusForbidden,

	// State machine violations
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	// Input errors
	ErrCodeInvalidInput:   http.StatusBadRequest,
	ErrCodeInvalidStatus:  http.StatusBadRequest,
	ErrCodeMalformedInput: http.StatusBadRequest,
	ErrCodeNoHeader:       http.StatusUnprocessableEntity,
	ErrCodeNoItems:        http.StatusBadRequest,
	ErrCodeInvalidPolicy:  http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,

	// Store-level failures
	ErrCodePermissionDenied:   http.StatusForbidden,
	ErrCodeTransactionAborted: http.StatusServiceUnavailable,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes fall back to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
