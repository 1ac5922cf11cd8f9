package apiclient

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-portal-session/internal/errors"
)

// StatusError is returned for any non-2xx response. It unwraps to the
// sentinel matching the status so callers can use errors.Is.
type StatusError struct {
	StatusCode  int
	Message     string
	Maintenance bool
	// credentialCheck marks a rejected login, which is a validation failure
	// whatever the status.
	credentialCheck bool
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() []error {
	if e.credentialCheck {
		return []error{errors.ErrValidation}
	}
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return []error{errors.ErrUnauthorized}
	case http.StatusForbidden:
		return []error{errors.ErrForbidden}
	case http.StatusServiceUnavailable:
		if e.Maintenance {
			return []error{errors.ErrMaintenance, errors.ErrServiceUnavailable}
		}
		return []error{errors.ErrServiceUnavailable}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return []error{errors.ErrValidation}
	}
	return []error{errors.ErrInvalidResponse}
}

// asCredentialError reclassifies a failed login: the login endpoints answer
// bad credentials with 400, 401 or 404, none of which say anything about an
// existing session.
func asCredentialError(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusUnprocessableEntity:
		return &StatusError{StatusCode: se.StatusCode, Message: se.Message, credentialCheck: true}
	}
	return err
}
