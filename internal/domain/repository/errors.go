package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness or ownership conflict (duplicate link,
	// pair owned by another user, constraint violation).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
