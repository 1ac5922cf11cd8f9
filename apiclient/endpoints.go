package apiclient

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/jrsteele09/go-portal-session/principal"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// API routes consumed by the session layer
const (
	PathLogin          = "/api/auth/login"
	PathAdminLogin     = "/api/auth/admin/login"
	PathVerify         = "/api/auth/verify"
	PathAdminVerify    = "/api/auth/admin/verify"
	PathStatus         = "/api/auth/status"
	PathPublicSettings = "/api/settings/public"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a freshly issued bearer token and the principal it belongs to.
type LoginResult struct {
	Token     string
	Principal principal.Principal
}

type AdminVerification struct {
	IsAdmin   bool
	Principal *principal.Principal
}

type PublicSettings struct {
	MaintenanceMode bool `json:"maintenanceMode"`
}

// Login exchanges user credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var resp struct {
		Token string               `json:"token"`
		User  *principal.Principal `json:"user"`
	}
	if err := c.do(ctx, c.anonymous, http.MethodPost, PathLogin, credentialsRequest{email, password}, &resp); err != nil {
		return LoginResult{}, asCredentialError(err)
	}
	if resp.Token == "" || resp.User == nil {
		return LoginResult{}, pkgerrors.Wrap(errors.ErrInvalidResponse, "[Login] token and user are required")
	}
	return LoginResult{Token: resp.Token, Principal: *resp.User}, nil
}

// AdminLogin exchanges admin credentials for a token. The returned principal
// always carries the admin role.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (LoginResult, error) {
	var resp struct {
		Token string               `json:"token"`
		Admin *principal.Principal `json:"admin"`
	}
	if err := c.do(ctx, c.anonymous, http.MethodPost, PathAdminLogin, credentialsRequest{email, password}, &resp); err != nil {
		return LoginResult{}, asCredentialError(err)
	}
	if resp.Token == "" || resp.Admin == nil {
		return LoginResult{}, pkgerrors.Wrap(errors.ErrInvalidResponse, "[AdminLogin] token and admin are required")
	}
	return LoginResult{Token: resp.Token, Principal: resp.Admin.WithRole(principal.RoleAdmin)}, nil
}

// Verify asks the user verification endpoint who token belongs to.
func (c *Client) Verify(ctx context.Context, token string) (*principal.Principal, error) {
	var resp struct {
		User *principal.Principal `json:"user"`
	}
	if err := c.do(ctx, c.authorized(StaticToken(token)), http.MethodGet, PathVerify, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, pkgerrors.Wrap(errors.ErrInvalidResponse, "[Verify] user is required")
	}
	return resp.User, nil
}

// AdminVerify asks the admin verification endpoint whether token belongs to
// an admin.
func (c *Client) AdminVerify(ctx context.Context, token string) (AdminVerification, error) {
	var resp struct {
		IsAdmin bool                 `json:"isAdmin"`
		Admin   *principal.Principal `json:"admin"`
	}
	if err := c.do(ctx, c.authorized(StaticToken(token)), http.MethodGet, PathAdminVerify, nil, &resp); err != nil {
		return AdminVerification{}, err
	}

	result := AdminVerification{IsAdmin: resp.IsAdmin}
	if resp.Admin != nil {
		p := resp.Admin.WithRole(principal.RoleAdmin)
		result.Principal = &p
	}
	if result.IsAdmin && result.Principal == nil {
		return AdminVerification{}, pkgerrors.Wrap(errors.ErrInvalidResponse, "[AdminVerify] admin is required")
	}
	return result, nil
}

// Status reports whether the account behind the token from src is still
// active.
func (c *Client) Status(ctx context.Context, src oauth2.TokenSource) (bool, error) {
	var resp struct {
		IsActive *bool `json:"isActive"`
	}
	if err := c.do(ctx, c.authorized(src), http.MethodGet, PathStatus, nil, &resp); err != nil {
		return false, err
	}
	if resp.IsActive == nil {
		return false, pkgerrors.Wrap(errors.ErrInvalidResponse, "[Status] isActive is required")
	}
	return *resp.IsActive, nil
}

func (c *Client) PublicSettings(ctx context.Context) (PublicSettings, error) {
	var resp PublicSettings
	if err := c.do(ctx, c.anonymous, http.MethodGet, PathPublicSettings, nil, &resp); err != nil {
		return PublicSettings{}, err
	}
	return resp, nil
}
