package session

import (
	"github.com/jrsteele09/go-portal-session/internal/errors"
)

const (
	msgInvalidCredentials = "Invalid email or password."
	msgBlocked            = "Your account has been blocked. Please contact an administrator."
	msgExpired            = "Your session has expired. Please sign in again."
	msgMaintenance        = "The site is under maintenance. Please try again later."
	msgUnreachable        = "Unable to reach the server. Please try again."
	msgGeneric            = "Something went wrong. Please try again."
)

// Message returns the short user-facing text for the reason, or "" for
// ReasonNone.
func (r Reason) Message() string {
	switch r {
	case ReasonBlocked:
		return msgBlocked
	case ReasonExpired:
		return msgExpired
	case ReasonNone:
		return ""
	}
	return ""
}

// Message maps an error returned by Login or AdminLogin onto a user-facing
// message. A blocked account never reads like bad credentials.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errors.ErrForbidden):
		return msgBlocked
	case errors.Is(err, errors.ErrValidation):
		return msgInvalidCredentials
	case errors.Is(err, errors.ErrUnauthorized):
		return msgExpired
	case errors.Is(err, errors.ErrMaintenance):
		return msgMaintenance
	case errors.Is(err, errors.ErrTransport), errors.Is(err, errors.ErrServiceUnavailable):
		return msgUnreachable
	}
	return msgGeneric
}
