package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// A coded error keeps its code and category; context errors map to CANCELED
// or TIMEOUT; anything else becomes INTERNAL.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var coded *Error
	if errors.As(err, &coded) {
		wrapped := &Error{
			code:     coded.code,
			category: coded.category,
			message:  message,
			cause:    err,
			taskID:   coded.taskID,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	}

	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// Is checks if any error in the chain has the given error code.
func Is(err error, code ErrorCode) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.code == code
	}
	return false
}

// Code extracts the error code from an error, if available.
// Returns empty string if err carries no code.
func Code(err error) ErrorCode {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.code
	}
	return ""
}

// IsCategory checks if the first coded error in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.category == category
	}
	return false
}

// IsPermanent checks if the error is permanent.
func IsPermanent(err error) bool {
	return IsCategory(err, CategoryPermanent)
}

// IsTransient checks if the error is transient.
func IsTransient(err error) bool {
	return IsCategory(err, CategoryTransient)
}

// TaskIDOf returns the task ID attached to the first coded error in the chain.
func TaskIDOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.taskID
	}
	return ""
}

// Join combines multiple errors into a single error.
// If all errors are nil, returns nil.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
