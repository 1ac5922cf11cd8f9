package guard

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/go-portal-session/principal"
	"github.com/jrsteele09/go-portal-session/session"
)

const (
	SignInPath     = "/signin"
	AdminLoginPath = "/admin/login"
	// ReturnToParam carries the original destination through sign-in.
	ReturnToParam = "returnTo"
)

type Outcome int

const (
	// Wait means the session is still booting; render a neutral placeholder.
	Wait Outcome = iota
	Allow
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the result of guarding one navigation. Location is only set
// for Redirect.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Authenticated admits users and admins. Anonymous visitors are sent to sign
// in with destination preserved as the return path.
func Authenticated(snap session.Snapshot, destination string) Decision {
	if snap.Booting() {
		return Decision{Outcome: Wait}
	}
	if snap.IsAuthenticated() {
		return Decision{Outcome: Allow}
	}
	return Decision{Outcome: Redirect, Location: SignInLocation(destination)}
}

// Admin admits admins only; everyone else goes to the admin login surface.
func Admin(snap session.Snapshot) Decision {
	if snap.Booting() {
		return Decision{Outcome: Wait}
	}
	if snap.Role == principal.RoleAdmin {
		return Decision{Outcome: Allow}
	}
	return Decision{Outcome: Redirect, Location: AdminLoginPath}
}

// SignInLocation builds the sign-in URL for destination. Destinations that
// are not same-origin paths are dropped.
func SignInLocation(destination string) string {
	dest := SafeReturnPath(destination)
	if dest == "" || dest == "/" {
		return SignInPath
	}
	return SignInPath + "?" + url.Values{ReturnToParam: {dest}}.Encode()
}

// SafeReturnPath returns p if it is a relative path on this origin, or "".
func SafeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return ""
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return u.RequestURI()
}
