// Package apperr defines the error kinds shared by every domain package.
// Domain packages declare their own sentinels that wrap one of these kinds,
// so HTTP handlers can map any error to a response with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no matching tenant, token or record.
	ErrNotFound = errors.New("not found")
	// ErrExpired indicates a time-bounded capability is past its TTL.
	ErrExpired = errors.New("expired")
	// ErrConflict indicates a uniqueness race was lost.
	ErrConflict = errors.New("conflict")
	// ErrForbidden indicates the caller's plan does not allow the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalid indicates malformed input.
	ErrInvalid = errors.New("invalid input")
	// ErrUnavailable indicates the backing store failed or timed out. Retryable.
	ErrUnavailable = errors.New("store unavailable")
)

// Unavailable wraps an infrastructure failure so that both ErrUnavailable and
// the underlying cause match errors.Is. A nil err returns nil.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// Kind returns the kind sentinel matched by err, or nil when err carries none.
func Kind(err error) error {
	for _, kind := range []error{ErrUnavailable, ErrForbidden, ErrConflict, ErrExpired, ErrInvalid, ErrNotFound} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
