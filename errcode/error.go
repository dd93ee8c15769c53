// Package errcode provides layered error codes shared by the gateway and services.
// Error code format: MMBBBB (MM = module code, BBBB = business code)
package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// LayeredError hierarchical error code
type LayeredError struct {
	module     string
	code       int    // MMBBBB, e.g. 100002
	msgKey     string // short error name exposed to clients, e.g. "ServiceUnavailable"
	msg        string
	httpStatus int
	data       map[string]any
	cause      error
}

// New creates a layered error.
// httpStatus is optional and defaults to 500.
func New(moduleCode, businessCode int, module, msgKey, msg string, httpStatus ...int) *LayeredError {
	status := http.StatusInternalServerError
	if len(httpStatus) > 0 {
		status = httpStatus[0]
	}
	return &LayeredError{
		module:     module,
		code:       moduleCode*10000 + businessCode,
		msgKey:     msgKey,
		msg:        msg,
		httpStatus: status,
		data:       make(map[string]any),
	}
}

func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code returns the full error code
func (e *LayeredError) Code() int { return e.code }

// Module returns the module name
func (e *LayeredError) Module() string { return e.module }

// MsgKey returns the error name
func (e *LayeredError) MsgKey() string { return e.msgKey }

// Message returns the message without the cause
func (e *LayeredError) Message() string { return e.msg }

// HTTPStatus returns the mapped HTTP status
func (e *LayeredError) HTTPStatus() int { return e.httpStatus }

// Data returns context data
func (e *LayeredError) Data() map[string]any { return e.data }

// Unwrap supports errors.Is / errors.As through the cause chain
func (e *LayeredError) Unwrap() error { return e.cause }

// Is compares by code
func (e *LayeredError) Is(target error) bool {
	t, ok := target.(*LayeredError)
	if !ok {
		return false
	}
	return e.code == t.code
}

// WithMsgf returns a copy with a formatted message
func (e *LayeredError) WithMsgf(format string, args ...any) *LayeredError {
	clone := *e
	clone.msg = fmt.Sprintf(format, args...)
	return &clone
}

// WithData returns a copy carrying one more context value
func (e *LayeredError) WithData(key string, value any) *LayeredError {
	clone := *e
	clone.data = make(map[string]any, len(e.data)+1)
	for k, v := range e.data {
		clone.data[k] = v
	}
	clone.data[key] = value
	return &clone
}

// Wrap returns a copy wrapping cause
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// Body is the JSON error body returned to HTTP clients: {error, message},
// plus "fields" for validation failures
func (e *LayeredError) Body() map[string]any {
	body := map[string]any{
		"error":   e.msgKey,
		"message": e.msg,
	}
	if fields, ok := e.data["fields"]; ok {
		body["fields"] = fields
	}
	return body
}

// As extracts a LayeredError from an error chain
func As(err error) (*LayeredError, bool) {
	var layered *LayeredError
	if errors.As(err, &layered) {
		return layered, true
	}
	return nil, false
}
