package session

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/jrsteele09/go-portal-session/principal"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Prober is the pair of read-only verification endpoints.
type Prober interface {
	AdminVerify(ctx context.Context, token string) (apiclient.AdminVerification, error)
	Verify(ctx context.Context, token string) (*principal.Principal, error)
}

// Result is the classification of a token.
type Result struct {
	Role      principal.Role
	Principal *principal.Principal
	// EraseCredential is set when neither probe accepted the token.
	EraseCredential bool
	// Blocked is set when a probe identified the account but reported it
	// inactive or forbidden.
	Blocked bool
}

// Verifier classifies a stored token as admin, user or neither.
type Verifier struct {
	prober Prober
}

func NewVerifier(prober Prober) (*Verifier, error) {
	if prober == nil {
		return nil, pkgerrors.New("[NewVerifier] prober is required")
	}
	return &Verifier{prober: prober}, nil
}

// Verify probes the admin endpoint and only then, if that did not confirm an
// admin, the user endpoint. The probes never overlap. A failure of either
// probe, whatever its cause, only means that probe said no.
func (v *Verifier) Verify(ctx context.Context, token string) Result {
	if strings.TrimSpace(token) == "" {
		return Result{Role: principal.RoleAnonymous, EraseCredential: true}
	}

	blocked := false

	admin, err := v.prober.AdminVerify(ctx, token)
	switch {
	case err != nil:
		blocked = isBlockedSignal(err)
		log.Debug().Err(err).Msg("admin probe rejected token")
	case !admin.IsAdmin:
		log.Debug().Msg("admin probe: not an admin")
	case !admin.Principal.Active:
		blocked = true
		log.Debug().Msg("admin probe: account inactive")
	default:
		p := admin.Principal.WithRole(principal.RoleAdmin)
		return Result{Role: principal.RoleAdmin, Principal: &p}
	}

	user, err := v.prober.Verify(ctx, token)
	switch {
	case err != nil:
		blocked = blocked || isBlockedSignal(err)
		log.Debug().Err(err).Msg("user probe rejected token")
	case !user.Active:
		blocked = true
		log.Debug().Msg("user probe: account inactive")
	default:
		p := user.WithRole(principal.RoleUser)
		return Result{Role: principal.RoleUser, Principal: &p}
	}

	return Result{Role: principal.RoleAnonymous, EraseCredential: true, Blocked: blocked}
}

// isBlockedSignal is true for a 403 that is not just "you are not an admin".
// The admin probe answers plain users with 403 too, so only the body text can
// tell the two apart there.
func isBlockedSignal(err error) bool {
	var se *apiclient.StatusError
	if !errors.As(err, &se) || !errors.Is(err, errors.ErrForbidden) {
		return false
	}
	return strings.Contains(strings.ToLower(se.Message), "block")
}
