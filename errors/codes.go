package errors

// ErrorCategory classifies errors by how a caller should react to them.
type ErrorCategory string

const (
	// CategoryPermanent indicates failures where retry with the same input will not help.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryTransient indicates failures that may clear on their own.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal indicates unexpected failures in a supporting component.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	return c == CategoryTransient
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT" // Rejected input (empty title, unknown status)
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"     // Unknown task id
	ErrCodeConflict     ErrorCode = "CONFLICT"      // Operation conflicts with current state
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"   // Component stopped or closed
	ErrCodeCanceled     ErrorCode = "CANCELED"      // Context canceled
	ErrCodeTimeout      ErrorCode = "TIMEOUT"       // Deadline exceeded
	ErrCodeInternal     ErrorCode = "INTERNAL"      // Unexpected internal error
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeInvalidInput, ErrCodeNotFound, ErrCodeConflict, ErrCodeCanceled:
		return CategoryPermanent
	case ErrCodeUnavailable, ErrCodeTimeout:
		return CategoryTransient
	default:
		return CategoryInternal
	}
}

var codeDescriptions = map[ErrorCode]string{
	ErrCodeInvalidInput: "invalid input provided",
	ErrCodeNotFound:     "resource not found",
	ErrCodeConflict:     "conflicting operation",
	ErrCodeUnavailable:  "component unavailable",
	ErrCodeCanceled:     "operation canceled",
	ErrCodeTimeout:      "operation timed out",
	ErrCodeInternal:     "internal error",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
