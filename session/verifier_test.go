package session_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/jrsteele09/go-portal-session/principal"
	"github.com/jrsteele09/go-portal-session/session"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var (
	adminPrincipal = &principal.Principal{ID: "a1", Name: "Editor", Role: principal.RoleAdmin, Active: true}
	userPrincipal  = &principal.Principal{ID: "u1", Name: "Reader", Role: principal.RoleUser, Active: true}
)

func forbidden(message string) error {
	return &apiclient.StatusError{StatusCode: 403, Message: message}
}

func TestVerifier_Precedence(t *testing.T) {
	tests := []struct {
		name          string
		adminVerify   func(string) (apiclient.AdminVerification, error)
		verify        func(string) (*principal.Principal, error)
		expectedRole  principal.Role
		expectedCalls []string
		erase         bool
		blocked       bool
	}{
		{
			name: "admin token stops after admin probe",
			adminVerify: func(string) (apiclient.AdminVerification, error) {
				return apiclient.AdminVerification{IsAdmin: true, Principal: adminPrincipal}, nil
			},
			verify: func(string) (*principal.Principal, error) {
				return userPrincipal, nil
			},
			expectedRole:  principal.RoleAdmin,
			expectedCalls: []string{"admin-verify"},
		},
		{
			name: "non-admin answer falls through to user probe",
			adminVerify: func(string) (apiclient.AdminVerification, error) {
				return apiclient.AdminVerification{IsAdmin: false}, nil
			},
			verify: func(string) (*principal.Principal, error) {
				return userPrincipal, nil
			},
			expectedRole:  principal.RoleUser,
			expectedCalls: []string{"admin-verify", "verify"},
		},
		{
			name: "admin probe failure falls through to user probe",
			adminVerify: func(string) (apiclient.AdminVerification, error) {
				return apiclient.AdminVerification{}, forbidden("Admin access required")
			},
			verify: func(string) (*principal.Principal, error) {
				return userPrincipal, nil
			},
			expectedRole:  principal.RoleUser,
			expectedCalls: []string{"admin-verify", "verify"},
		},
		{
			name: "both probes rejecting means anonymous",
			adminVerify: func(string) (apiclient.AdminVerification, error) {
				return apiclient.AdminVerification{}, &apiclient.StatusError{StatusCode: 401}
			},
			verify: func(string) (*principal.Principal, error) {
				return nil, &apiclient.StatusError{StatusCode: 401}
			},
			expectedRole:  principal.RoleAnonymous,
			expectedCalls: []string{"admin-verify", "verify"},
			erase:         true,
		},
		{
			name: "transport failures count as no",
			adminVerify: func(string) (apiclient.AdminVerification, error) {
				return apiclient.AdminVerification{}, pkgerrors.Wrap(errors.ErrTransport, "dial")
			},
			verify: func(string) (*principal.Principal, error) {
				return nil, pkgerrors.Wrap(errors.ErrTransport, "dial")
			},
			expectedRole:  principal.RoleAnonymous,
			expectedCalls: []string{"admin-verify", "verify"},
			erase:         true,
		},
		{
			name: "blocked account",
			adminVerify: func(string) (apiclient.AdminVerification, error) {
				return apiclient.AdminVerification{}, forbidden("Account blocked")
			},
			verify: func(string) (*principal.Principal, error) {
				return nil, forbidden("Account blocked")
			},
			expectedRole:  principal.RoleAnonymous,
			expectedCalls: []string{"admin-verify", "verify"},
			erase:         true,
			blocked:       true,
		},
		{
			name: "inactive user principal",
			adminVerify: func(string) (apiclient.AdminVerification, error) {
				return apiclient.AdminVerification{IsAdmin: false}, nil
			},
			verify: func(string) (*principal.Principal, error) {
				return &principal.Principal{ID: "u1", Active: false}, nil
			},
			expectedRole:  principal.RoleAnonymous,
			expectedCalls: []string{"admin-verify", "verify"},
			erase:         true,
			blocked:       true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := &scriptedAPI{adminVerify: tc.adminVerify, verify: tc.verify}
			v, err := session.NewVerifier(api)
			require.NoError(t, err)

			res := v.Verify(context.Background(), "some-token")
			require.Equal(t, tc.expectedRole, res.Role)
			require.Equal(t, tc.expectedCalls, api.Calls())
			require.Equal(t, tc.erase, res.EraseCredential)
			require.Equal(t, tc.blocked, res.Blocked)
			if tc.expectedRole.IsAuthenticated() {
				require.NotNil(t, res.Principal)
				require.Equal(t, tc.expectedRole, res.Principal.Role)
			}
		})
	}
}

func TestVerifier_ProbesNeverOverlap(t *testing.T) {
	var adminInFlight atomic.Bool
	overlapped := false

	api := &scriptedAPI{
		adminVerify: func(string) (apiclient.AdminVerification, error) {
			adminInFlight.Store(true)
			defer adminInFlight.Store(false)
			return apiclient.AdminVerification{}, forbidden("Admin access required")
		},
		verify: func(string) (*principal.Principal, error) {
			overlapped = adminInFlight.Load()
			return userPrincipal, nil
		},
	}
	v, err := session.NewVerifier(api)
	require.NoError(t, err)

	res := v.Verify(context.Background(), "token")
	require.Equal(t, principal.RoleUser, res.Role)
	require.False(t, overlapped)
}

func TestVerifier_EmptyTokenMakesNoCalls(t *testing.T) {
	api := &scriptedAPI{}
	v, err := session.NewVerifier(api)
	require.NoError(t, err)

	res := v.Verify(context.Background(), "  ")
	require.Equal(t, principal.RoleAnonymous, res.Role)
	require.True(t, res.EraseCredential)
	require.Empty(t, api.Calls())
}

func TestVerifier_Idempotent(t *testing.T) {
	f := setupTestFixture(t)
	token, err := f.api.IssueToken(testAdminEmail)
	require.NoError(t, err)

	v, err := session.NewVerifier(f.client)
	require.NoError(t, err)

	first := v.Verify(context.Background(), token)
	second := v.Verify(context.Background(), token)
	require.Equal(t, principal.RoleAdmin, first.Role)
	require.Equal(t, first, second)
	require.Equal(t, []string{apiclient.PathAdminVerify, apiclient.PathAdminVerify}, f.api.Calls())
}

func TestNewVerifier_RequiresProber(t *testing.T) {
	_, err := session.NewVerifier(nil)
	require.Error(t, err)
}
