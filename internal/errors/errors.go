package errors

import (
	"errors"
	"fmt"
)

// Common error types for the portal session layer
var (
	// Transport errors
	ErrTransport       = errors.New("transport failure")
	ErrInvalidResponse = errors.New("invalid response")

	// Authentication errors
	ErrValidation   = errors.New("invalid email or password")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Availability errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrMaintenance        = errors.New("site under maintenance")

	// Session errors
	ErrNoSession     = errors.New("no active session")
	ErrSuperseded    = errors.New("superseded by a newer session change")
	ErrClosed        = errors.New("session manager closed")
	ErrAlreadyBooted = errors.New("session already booted")

	// Credential store errors
	ErrStoreUnavailable = errors.New("credential store unavailable")
	ErrCorruptSnapshot  = errors.New("corrupt credential snapshot")
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
