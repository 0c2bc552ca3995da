package objstore

import "errors"

// Sentinel errors shared by all Connection implementations. Backends wrap
// these with operation context; callers test with errors.Is or the
// helpers below.
var (
	// ErrNotFound indicates the container or object does not exist.
	ErrNotFound = errors.New("objstore: not found")

	// ErrUnauthorized indicates the connection's credentials were rejected.
	ErrUnauthorized = errors.New("objstore: unauthorized")

	// ErrForbidden indicates the credentials are valid but do not grant
	// access to the requested container or object.
	ErrForbidden = errors.New("objstore: forbidden")
)

// IsNotFound reports whether err indicates a missing container or object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err indicates rejected credentials.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden reports whether err indicates insufficient access.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
