package errors

import (
	"errors"
	"fmt"
)

// Common error types for the dashboard client
var (
	// Session errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmptyToken   = errors.New("login key must not be empty")
	ErrNotHydrated  = errors.New("session not hydrated")
	ErrNotPersisted = errors.New("session could not be persisted")

	// Transport errors
	ErrTimeout   = errors.New("request timed out")
	ErrTransport = errors.New("request failed")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Transient reports whether err is a timeout or transport failure. Neither says anything about
// the session, so callers may simply retry.
func Transient(err error) bool {
	return Is(err, ErrTimeout) || Is(err, ErrTransport)
}
