// Package domainerrors provides coded errors shared across the service.
// Callers branch on codes rather than string matching, and the HTTP layer
// translates codes to statuses in one place.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error for propagation decisions.
type Code string

const (
	// CodeNotFound marks an expected miss: no identity, record, or config
	// matched. Callers branch on it; it is not a fault.
	CodeNotFound Code = "not_found"

	// CodeConflict marks a duplicate-create race. Resolved by re-reading,
	// never surfaced to the original caller.
	CodeConflict Code = "conflict"

	// CodeStoreUnavailable marks a durable-store I/O failure. Fatal to the
	// initiating write.
	CodeStoreUnavailable Code = "store_unavailable"

	// CodeSinkUnconfigured marks missing per-tenant sink configuration.
	// Logged and skipped.
	CodeSinkUnconfigured Code = "sink_unconfigured"

	// CodeSinkDelivery marks a downstream HTTP failure during async sync.
	// Returned as a value, never propagated upward.
	CodeSinkDelivery Code = "sink_delivery_failure"

	// CodeDecryptionFailure marks a stored config value that could not be
	// decrypted. The affected setting carries the marker; resolve continues.
	CodeDecryptionFailure Code = "decryption_failure"

	CodeInvalidInput Code = "invalid_input"
	CodeInternal     Code = "internal"
)

// Error is the coded error type used throughout the service.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status used by the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
