package web

import (
	"github.com/pkg/errors"
)

// Error is used to pass an error during the request through the application
// with web specific context. Fields are merged into the error response body.
type Error struct {
	Err    error
	Status int
	Fields map[string]interface{}
}

// NewRequestError wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewRequestError(err error, status int) error {
	return &Error{Err: err, Status: status}
}

// NewFieldsError is NewRequestError with extra response body fields.
func NewFieldsError(err error, status int, fields map[string]interface{}) error {
	return &Error{Err: err, Status: status, Fields: fields}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsRequestError reports whether err carries a *Error somewhere in its chain.
func AsRequestError(err error) (*Error, bool) {
	var webErr *Error
	if errors.As(err, &webErr) {
		return webErr, true
	}
	return nil, false
}
