// Package errcode provides layered error codes shared by every module.
//
// A code is moduleCode*10000 + businessCode, so module 30 business 4
// becomes 300004. Two errors are equal under errors.Is when their codes match,
// which lets callers compare against sentinels after WithMsg/Wrap/WithData.
package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// LayeredError error carrying a module, a numeric code and optional context data.
// All With* methods return a copy; sentinels are never mutated.
type LayeredError struct {
	module     string
	code       int
	msgKey     string // i18n key, e.g. "jwt.token_expired"
	msg        string
	httpStatus int
	data       map[string]interface{}
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
	}
}

func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code full numeric code
func (e *LayeredError) Code() int { return e.code }

// Module owning module name
func (e *LayeredError) Module() string { return e.module }

// MsgKey message key for translation
func (e *LayeredError) MsgKey() string { return e.msgKey }

// Message message without the cause
func (e *LayeredError) Message() string { return e.msg }

// HTTPStatus suggested status for hosts exposing the error over HTTP
func (e *LayeredError) HTTPStatus() int { return e.httpStatus }

// Data returns a copy of the attached context data
func (e *LayeredError) Data() map[string]interface{} {
	return e.cloneData()
}

// Cause wrapped error, nil when none
func (e *LayeredError) Cause() error { return e.cause }

// Unwrap exposes the cause to errors.Is / errors.As
func (e *LayeredError) Unwrap() error { return e.cause }

// Is matches any LayeredError with the same code
func (e *LayeredError) Is(target error) bool {
	var t *LayeredError
	if !errors.As(target, &t) {
		return false
	}
	return e.code == t.code
}

// WithMsg replaces the message
func (e *LayeredError) WithMsg(msg string) *LayeredError {
	clone := e.clone()
	clone.msg = msg
	return clone
}

// WithMsgf replaces the message using a format string
func (e *LayeredError) WithMsgf(format string, args ...interface{}) *LayeredError {
	return e.WithMsg(fmt.Sprintf(format, args...))
}

// WithData attaches one key/value pair
func (e *LayeredError) WithData(key string, value interface{}) *LayeredError {
	clone := e.clone()
	clone.data[key] = value
	return clone
}

// WithFields attaches several key/value pairs
func (e *LayeredError) WithFields(fields map[string]interface{}) *LayeredError {
	clone := e.clone()
	for k, v := range fields {
		clone.data[k] = v
	}
	return clone
}

// WithHTTPStatus overrides the suggested HTTP status
func (e *LayeredError) WithHTTPStatus(status int) *LayeredError {
	clone := e.clone()
	clone.httpStatus = status
	return clone
}

// Wrap sets the cause; a nil cause returns e unchanged
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := e.clone()
	clone.cause = cause
	return clone
}

// Wrapf sets the cause and replaces the message
func (e *LayeredError) Wrapf(cause error, format string, args ...interface{}) *LayeredError {
	clone := e.Wrap(cause).WithMsgf(format, args...)
	return clone
}

// String debug representation
func (e *LayeredError) String() string {
	if e.cause != nil {
		return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s, cause:%v}", e.code, e.module, e.msg, e.cause)
	}
	return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s}", e.code, e.module, e.msg)
}

func (e *LayeredError) clone() *LayeredError {
	c := *e
	c.data = e.cloneData()
	return &c
}

func (e *LayeredError) cloneData() map[string]interface{} {
	data := make(map[string]interface{}, len(e.data))
	for k, v := range e.data {
		data[k] = v
	}
	return data
}

// From extracts the outermost LayeredError from an error chain
func From(err error) (*LayeredError, bool) {
	var le *LayeredError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// CodeOf returns the code of the first LayeredError in the chain, 0 if none
func CodeOf(err error) int {
	if le, ok := From(err); ok {
		return le.code
	}
	return 0
}
