package credentials

import (
	"github.com/jrsteele09/go-portal-session/principal"
)

const (
	// TokenKey and UserKey are the two persisted keys.
	TokenKey = "token"
	UserKey  = "user"
)

// Credential is the persisted bearer token together with the last known
// snapshot of the principal it belongs to.
type Credential struct {
	Token     string
	Principal *principal.Principal
}

// Store persists the session credential. Implementations complete every call
// before returning and Clear is idempotent.
type Store interface {
	Save(token string, p *principal.Principal) error
	// Load returns nil, nil when no credential is stored.
	Load() (*Credential, error)
	Clear() error
}
