package filehandle

import (
	"errors"
)

// ErrorCode represents the category of a filehandle error.
//
// Protocol layers translate ErrorCode to wire status codes (see
// internal/protocol/nfs/xdr.StatusFromError).
type ErrorCode int

const (
	// ErrInvalidHandle indicates a malformed, truncated or sentinel handle
	ErrInvalidHandle ErrorCode = iota + 1

	// ErrInvalidPath indicates a path that is relative or outside the root
	ErrInvalidPath

	// ErrInvalidName indicates a directory entry name that cannot be used
	// (empty, contains a slash, or too long)
	ErrInvalidName

	// ErrNotFound indicates the object could not be located by search
	ErrNotFound

	// ErrDepthExceeded indicates the path or extension would exceed the
	// maximum handle depth
	ErrDepthExceeded

	// ErrStatFailure indicates an underlying filesystem query failed
	ErrStatFailure

	// ErrNotDirectory indicates a directory was required
	ErrNotDirectory

	// ErrNotSupported indicates the platform lacks a capability
	ErrNotSupported

	// ErrThrottled indicates an uncached search was refused by the search
	// rate limit; the client should retry later
	ErrThrottled

	// ErrNameTooLong indicates a directory entry name longer than
	// MaxNameLen
	ErrNameTooLong
)

// String returns the name of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidHandle:
		return "InvalidHandle"
	case ErrInvalidPath:
		return "InvalidPath"
	case ErrInvalidName:
		return "InvalidName"
	case ErrNotFound:
		return "NotFound"
	case ErrDepthExceeded:
		return "DepthExceeded"
	case ErrStatFailure:
		return "StatFailure"
	case ErrNotDirectory:
		return "NotDirectory"
	case ErrNotSupported:
		return "NotSupported"
	case ErrThrottled:
		return "Throttled"
	case ErrNameTooLong:
		return "NameTooLong"
	default:
		return "Unknown"
	}
}

// HandleError is the error type returned by filehandle operations.
//
// None of these errors are fatal: they describe why a single handle could
// not be composed, extended or resolved.
type HandleError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the filesystem path related to the error (if applicable)
	Path string

	// Err is the underlying cause, typically an *os.PathError
	Err error
}

// Error implements the error interface.
func (e *HandleError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *HandleError) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message, path string, cause error) *HandleError {
	return &HandleError{Code: code, Message: message, Path: path, Err: cause}
}

// NewError builds a HandleError. It is exported for layers built on top of
// this package that report the same error categories.
func NewError(code ErrorCode, message, path string, cause error) error {
	return newError(code, message, path, cause)
}

// CodeOf returns the ErrorCode carried by err, or 0 if err is not (and does
// not wrap) a *HandleError.
func CodeOf(err error) ErrorCode {
	var he *HandleError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

// IsCode reports whether err carries the given ErrorCode.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
