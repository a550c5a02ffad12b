package domainerrors

import "errors"

// Code represents a stable failure category independent of the transport layer.
// Codes describe what went wrong in SDK terms, not HTTP terms.
type Code string

const (
	// Client-side failures. These never issue network traffic.
	CodeValidation       Code = "validation_failed"
	CodeInvalidInput     Code = "invalid_input"
	CodeInvalidTimestamp Code = "invalid_timestamp"

	// Remote-interaction failures.
	CodeTransport         Code = "transport_failed"
	CodeUploadRequest     Code = "upload_request_failed"
	CodeUploadTransfer    Code = "upload_transfer_failed"
	CodeResponseIntegrity Code = "response_integrity"
	CodePollTimeout       Code = "poll_timeout"
	CodeUnavailable       Code = "unavailable"

	CodeInternal Code = "internal_error"
)

// Error wraps SDK or remote failures with a stable code.
// RemoteCode carries the verification service's own error code when the remote
// supplied a structured {code, error} body.
type Error struct {
	Code       Code
	Message    string
	RemoteCode string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, RemoteCode: existing.RemoteCode, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// Remote creates a transport error carrying the remote service's error code.
func Remote(remoteCode, msg string) error {
	return &Error{Code: CodeTransport, Message: msg, RemoteCode: remoteCode}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
