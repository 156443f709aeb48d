package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable means the backing store could not be read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidInput means the caller supplied empty or malformed fields.
	ErrInvalidInput = errors.New("invalid input")
)

// Invalid builds an ErrInvalidInput with a message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Storage wraps a backend failure for op so that errors.Is matches
// ErrStorageUnavailable while keeping the cause reachable.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
