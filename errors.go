package archivekit

import (
	"errors"
	"fmt"
)

// ErrorCode classifies archive operation failures.
type ErrorCode int

const (
	// ErrCodeAuth indicates the root authentication failed. Whether the
	// principal was unknown or the secret rejected is preserved on the
	// wrapped error; see identity.IsUnknownPrincipal and
	// identity.IsRejectedSecret.
	ErrCodeAuth ErrorCode = iota + 1
	// ErrCodeScope indicates a project-scoping exchange failed.
	ErrCodeScope
	// ErrCodeNotFound indicates a path, container or directory does not
	// exist.
	ErrCodeNotFound
	// ErrCodeConflict indicates a destination exists and overwrite was
	// not permitted.
	ErrCodeConflict
	// ErrCodeUnknownUser indicates an access grant referenced a username
	// absent from the project's user map.
	ErrCodeUnknownUser
	// ErrCodeReadOnly indicates a mutating call on a read-only surface.
	ErrCodeReadOnly
	// ErrCodeDetached indicates a File operation with no owning
	// container to delegate to.
	ErrCodeDetached
	// ErrCodeValidation indicates a bad argument, such as an unknown
	// unit or access mode.
	ErrCodeValidation
	// ErrCodeTransport indicates an opaque failure from a collaborator
	// service.
	ErrCodeTransport
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeAuth:
		return "auth"
	case ErrCodeScope:
		return "scope"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeConflict:
		return "conflict"
	case ErrCodeUnknownUser:
		return "unknown_user"
	case ErrCodeReadOnly:
		return "read_only"
	case ErrCodeDetached:
		return "detached"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is the error type returned by archive operations.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archivekit: %s (%s): %v", e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("archivekit: %s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code ErrorCode, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func isCode(err error, code ErrorCode) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return isCode(err, ErrCodeAuth) }

// IsScope reports whether err is a project-scoping failure.
func IsScope(err error) bool { return isCode(err, ErrCodeScope) }

// IsNotFound reports whether err indicates a missing path, container or
// directory.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict reports whether err indicates an existing destination.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsUnknownUser reports whether err indicates an unresolvable username.
func IsUnknownUser(err error) bool { return isCode(err, ErrCodeUnknownUser) }

// IsReadOnly reports whether err indicates a mutating call on a
// read-only surface.
func IsReadOnly(err error) bool { return isCode(err, ErrCodeReadOnly) }

// IsDetached reports whether err indicates a File with no owning
// container.
func IsDetached(err error) bool { return isCode(err, ErrCodeDetached) }

// IsValidation reports whether err indicates a bad argument.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsTransport reports whether err indicates a collaborator failure.
func IsTransport(err error) bool { return isCode(err, ErrCodeTransport) }
