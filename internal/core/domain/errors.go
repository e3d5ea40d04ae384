package domain

import (
	"errors"
	"fmt"
)

const (
	ErrorKindUndefined ErrorKind = iota
	// ErrorKindUnauthorized is returned when the caller lacks the required
	// role or ownership.
	ErrorKindUnauthorized
	// ErrorKindValidation is returned on malformed input.
	ErrorKindValidation
	// ErrorKindConflict is returned when the operation is invalid for the
	// current state of the record.
	ErrorKindConflict
	// ErrorKindTiming is returned when the operation is attempted too soon
	// or too late.
	ErrorKindTiming
	// ErrorKindIntegrity is returned on a commit-reveal hash mismatch.
	ErrorKindIntegrity
	// ErrorKindOperational is returned while the system is paused or the
	// circuit breaker is active.
	ErrorKindOperational
	// ErrorKindNotFound is returned when a mutating operation references a
	// record that does not exist.
	ErrorKindNotFound
)

type ErrorKind int

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindUnauthorized:
		return "UNAUTHORIZED"
	case ErrorKindValidation:
		return "VALIDATION"
	case ErrorKindConflict:
		return "CONFLICT"
	case ErrorKindTiming:
		return "TIMING"
	case ErrorKindIntegrity:
		return "INTEGRITY"
	case ErrorKindOperational:
		return "OPERATIONAL"
	case ErrorKindNotFound:
		return "NOT_FOUND"
	default:
		return "UNDEFINED"
	}
}

// Error is the error type returned by every precondition check in the
// domain, so that callers can branch on cause instead of matching message
// strings.
type Error struct {
	Kind    ErrorKind
	message string
}

func (e *Error) Error() string {
	return e.message
}

func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ErrorKindUndefined
}

func NewUnauthorizedError(format string, args ...interface{}) *Error {
	return &Error{ErrorKindUnauthorized, fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...interface{}) *Error {
	return &Error{ErrorKindValidation, fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...interface{}) *Error {
	return &Error{ErrorKindConflict, fmt.Sprintf(format, args...)}
}

func NewTimingError(format string, args ...interface{}) *Error {
	return &Error{ErrorKindTiming, fmt.Sprintf(format, args...)}
}

func NewIntegrityError(format string, args ...interface{}) *Error {
	return &Error{ErrorKindIntegrity, fmt.Sprintf(format, args...)}
}

func NewOperationalError(format string, args ...interface{}) *Error {
	return &Error{ErrorKindOperational, fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) *Error {
	return &Error{ErrorKindNotFound, fmt.Sprintf(format, args...)}
}
