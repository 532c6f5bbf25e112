package store

import "errors"

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("store: key not found")
)

// IsNotFound checks if error represents a missing key
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
