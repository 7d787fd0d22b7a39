package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the different kinds of failure inside the instrumentation layer
type ErrorType string

const (
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeRegistry ErrorType = "registry"
	ErrorTypeAsset    ErrorType = "asset"
	ErrorTypeRender   ErrorType = "render"
	ErrorTypeProbe    ErrorType = "probe"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error is an instrumentation error with type information.
// None of these ever reach the end user of a host application; they are logged and dropped.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same type, so errors.Is(err, &Error{Type: ErrorTypeAsset}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

// New creates a typed error
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates a typed error around a cause
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown when err is not an *Error
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err (or anything it wraps) is an *Error of the given type
func IsType(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}
