package service

import (
	"errors"
	"fmt"

	"daycheck/internal/repository"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("not owned by the caller")
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrInvalidRange   = errors.New("invalid date range")
)

// ValidationError names the offending input field. It matches
// ErrInvalidPattern with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidPattern, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidPattern
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// storeErr wraps a store failure with op, translating the repository's
// not-found sentinel into ErrNotFound.
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
