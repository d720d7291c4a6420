// Package domainerrors carries the uniform failure value returned across the
// repository and orchestrator boundaries. An *Error pairs a stable Code with a
// message that is safe to show to the end user; the underlying cause is kept
// for logging and never rendered verbatim.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure.
type Code string

const (
	CodeNoItemsDetected Code = "no_items_detected"
	CodeCreationFailed  Code = "creation_failed"
	CodeNotFound        Code = "not_found"
	CodeValidation      Code = "validation_error"
	CodeBadRequest      Code = "bad_request"
	CodeInvalidInput    Code = "invalid_input"
	CodeInvalidState    Code = "invalid_state"
	CodeConflict        Code = "conflict"
	CodeUnavailable     Code = "unavailable"
	CodeTimeout         Code = "timeout"
	CodeInternal        Code = "internal_error"
)

// Error is a classified failure.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap classifies err, keeping it as the loggable cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// UserMessage returns the message meant for end users. Unclassified errors
// get a generic message so driver text never leaks.
func UserMessage(err error) string {
	if de, ok := As(err); ok && de.Message != "" {
		return de.Message
	}
	return "something went wrong"
}
