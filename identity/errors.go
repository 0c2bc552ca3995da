package identity

import (
	"errors"
	"fmt"
)

// ErrorCode classifies identity service failures.
type ErrorCode int

const (
	// ErrCodeUnknownPrincipal indicates the service does not know the
	// user (HTTP 404 from the token endpoint).
	ErrCodeUnknownPrincipal ErrorCode = iota
	// ErrCodeRejectedSecret indicates the password or token was
	// rejected (HTTP 401).
	ErrCodeRejectedSecret
	// ErrCodeScope indicates a project-scoped token request failed.
	ErrCodeScope
	// ErrCodeTransport indicates a protocol or connection failure.
	ErrCodeTransport
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeUnknownPrincipal:
		return "unknown_principal"
	case ErrCodeRejectedSecret:
		return "rejected_secret"
	case ErrCodeScope:
		return "scope"
	case ErrCodeTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is a structured identity error with classification.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode
	// Message describes the failure.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("identity: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnknownPrincipal reports whether err indicates an unknown user.
func IsUnknownPrincipal(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeUnknownPrincipal
}

// IsRejectedSecret reports whether err indicates a rejected password or token.
func IsRejectedSecret(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeRejectedSecret
}

// IsScope reports whether err indicates a failed scope request.
func IsScope(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeScope
}
