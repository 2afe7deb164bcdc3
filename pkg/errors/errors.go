package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInputsData indicates that no named input produced any record
	ErrEmptyInputsData = errors.New("empty inputs data")

	// ErrInputMapping indicates that the inputs cannot be merged or mapped into flow inputs
	ErrInputMapping = errors.New("input mapping error")

	// ErrUnexpected indicates a defect in the calling code rather than bad user input
	ErrUnexpected = errors.New("unexpected error")

	// ErrSourceUnavailable indicates that a dataset source could not be read
	ErrSourceUnavailable = errors.New("dataset source unavailable")

	// ErrDispatchFailed indicates that resolved inputs could not be handed off
	ErrDispatchFailed = errors.New("dispatch failed")
)

// Error represents a structured batch input error
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new structured error
func NewError(code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Code returns the machine-readable code carried by err, or "" if there is none.
func Code(err error) string {
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr.Code
	}
	return ""
}

// IsUserError reports whether err is caused by the caller's data or mapping.
// These are configuration problems and must not be retried.
func IsUserError(err error) bool {
	return errors.Is(err, ErrEmptyInputsData) || errors.Is(err, ErrInputMapping)
}

// IsInternalError reports whether err signals a defect in the calling code
func IsInternalError(err error) bool {
	return errors.Is(err, ErrUnexpected)
}

// IsRetryable reports whether a retry may succeed. Only I/O around the core is
// ever retryable; merge and mapping failures never are.
func IsRetryable(err error) bool {
	if err == nil || IsUserError(err) || IsInternalError(err) {
		return false
	}
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrDispatchFailed)
}
