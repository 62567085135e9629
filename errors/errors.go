package errors

import (
	"encoding/json"
	"fmt"
)

// Error is a coded error carrying an optional cause and task reference.
type Error struct {
	code     ErrorCode
	category ErrorCategory
	message  string
	cause    error
	taskID   string
}

var _ json.Marshaler = (*Error)(nil)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.category
}

// Retryable reports whether the operation may succeed on retry.
func (e *Error) Retryable() bool {
	return e.category.IsRetryable()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// TaskID returns the related task ID, if set.
func (e *Error) TaskID() string {
	return e.taskID
}

type errorJSON struct {
	Code     ErrorCode     `json:"code"`
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
	Cause    string        `json:"cause,omitempty"`
	TaskID   string        `json:"task_id,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	j := errorJSON{
		Code:     e.code,
		Category: e.category,
		Message:  e.message,
		TaskID:   e.taskID,
	}
	if e.cause != nil {
		j.Cause = e.cause.Error()
	}
	return json.Marshal(j)
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the default category.
func WithCategory(cat ErrorCategory) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithTaskID sets the related task ID.
func WithTaskID(id string) Option {
	return func(e *Error) {
		e.taskID = id
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string, opts ...Option) *Error {
	e := &Error{
		code:     code,
		category: code.DefaultCategory(),
		message:  message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// FromCode creates an error with the default description for the code.
func FromCode(code ErrorCode, opts ...Option) *Error {
	return New(code, code.Description(), opts...)
}

// InvalidInput creates an invalid input error.
func InvalidInput(message string, opts ...Option) *Error {
	return New(ErrCodeInvalidInput, message, opts...)
}

// NotFound creates a not found error.
func NotFound(message string, opts ...Option) *Error {
	return New(ErrCodeNotFound, message, opts...)
}

// Conflict creates a conflict error.
func Conflict(message string, opts ...Option) *Error {
	return New(ErrCodeConflict, message, opts...)
}

// Unavailable creates an unavailable error.
func Unavailable(message string, opts ...Option) *Error {
	return New(ErrCodeUnavailable, message, opts...)
}

// Internal creates an internal error.
func Internal(message string, opts ...Option) *Error {
	return New(ErrCodeInternal, message, opts...)
}
