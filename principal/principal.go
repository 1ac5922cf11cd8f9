package principal

import (
	"encoding/json"
	"fmt"
)

// Role is the closed set of roles a session can carry.
type Role int

const (
	RoleAnonymous Role = iota
	RoleUser
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleAnonymous: "anonymous",
	RoleUser:      "user",
	RoleAdmin:     "admin",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// IsAuthenticated is true for user and admin.
func (r Role) IsAuthenticated() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	case RoleAnonymous:
		return false
	}
	return false
}

func (r Role) MarshalText() ([]byte, error) {
	name, ok := roleNames[r]
	if !ok {
		return nil, fmt.Errorf("unknown role %d", int(r))
	}
	return []byte(name), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// ParseRole maps a role label onto the closed set. An empty label is a user.
func ParseRole(label string) (Role, error) {
	switch label {
	case "", "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	case "anonymous":
		return RoleAnonymous, nil
	}
	return RoleAnonymous, fmt.Errorf("unknown role %q", label)
}

type VerificationState int

const (
	VerificationPending VerificationState = iota
	VerificationVerified
	VerificationInvalid
)

func (v VerificationState) String() string {
	switch v {
	case VerificationPending:
		return "pending"
	case VerificationVerified:
		return "verified"
	case VerificationInvalid:
		return "invalid"
	}
	return fmt.Sprintf("VerificationState(%d)", int(v))
}

// Principal holds the public attributes of an authenticated identity.
type Principal struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
	Active bool   `json:"isActive"`
}

// principalJSON is the wire shape. The API sends "_id" on some endpoints and
// leaves out isActive for accounts that were never deactivated.
type principalJSON struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Active   *bool  `json:"isActive"`
}

func (p *Principal) UnmarshalJSON(data []byte) error {
	var raw principalJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	// The session role comes from the endpoint that accepted the token, so
	// an unfamiliar label on the wire is read as a plain user.
	role, err := ParseRole(raw.Role)
	if err != nil {
		role = RoleUser
	}

	*p = Principal{
		ID:     raw.ID,
		Name:   raw.Name,
		Email:  raw.Email,
		Role:   role,
		Active: raw.Active == nil || *raw.Active,
	}
	if p.ID == "" {
		p.ID = raw.LegacyID
	}
	if p.Name == "" {
		p.Name = raw.Username
	}
	return nil
}

// WithRole returns a copy of the principal carrying role.
func (p Principal) WithRole(role Role) Principal {
	p.Role = role
	return p
}

// DisplayName returns the name, falling back to the email address.
func (p *Principal) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}
