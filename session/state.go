package session

import (
	"fmt"

	"github.com/jrsteele09/go-portal-session/internal/utils"
	"github.com/jrsteele09/go-portal-session/principal"
)

// State is the Manager's lifecycle state.
type State int

const (
	StateBooting State = iota
	StateAnonymous
	StateUser
	StateAdmin
	StateLoggingOut
)

func (s State) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StateAnonymous:
		return "anonymous"
	case StateUser:
		return "user"
	case StateAdmin:
		return "admin"
	case StateLoggingOut:
		return "logging-out"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func stateForRole(role principal.Role) State {
	switch role {
	case principal.RoleAdmin:
		return StateAdmin
	case principal.RoleUser:
		return StateUser
	case principal.RoleAnonymous:
		return StateAnonymous
	}
	return StateAnonymous
}

// Reason records why a session was ended by something other than the user.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonBlocked
	ReasonExpired
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonBlocked:
		return "blocked"
	case ReasonExpired:
		return "expired"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Snapshot is a read-only copy of the session published by the Manager.
type Snapshot struct {
	State        State
	Role         principal.Role
	Principal    *principal.Principal
	Verification principal.VerificationState
	Reason       Reason
	LastError    error
	// Version increases with every published change.
	Version uint64
}

func (s Snapshot) IsAuthenticated() bool {
	return s.Role.IsAuthenticated()
}

// Booting is true until the stored credential has been classified.
func (s Snapshot) Booting() bool {
	return s.State == StateBooting
}

func (s Snapshot) clone() Snapshot {
	s.Principal = utils.Clone(s.Principal)
	return s
}
