// Package errors provides the structured error taxonomy used across taskboard.
//
// Every failure the core reports carries an ErrorCode and an ErrorCategory so
// that presentation code can decide what to surface without string matching.
//
// # Error Categories
//
//   - Permanent: retrying with the same input will not help (invalid input, unknown task)
//   - Transient: the operation may succeed later (component not running yet)
//   - Internal: unexpected failures in a supporting component (search index)
//
// # Usage
//
// Package-level sentinels are *Error values and compare with the standard
// library:
//
//	var ErrTaskNotFound = errors.New(errors.ErrCodeNotFound, "task not found")
//
//	err := errors.Wrap(ErrTaskNotFound, "set status", errors.WithTaskID(id))
//	stderrors.Is(err, ErrTaskNotFound) // true
//	errors.Is(err, errors.ErrCodeNotFound) // true
package errors
