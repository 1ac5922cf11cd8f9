package principal_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-portal-session/principal"
	"github.com/stretchr/testify/require"
)

func TestPrincipal_UnmarshalJSON(t *testing.T) {
	t.Run("full object", func(t *testing.T) {
		var p principal.Principal
		err := json.Unmarshal([]byte(`{"id":"u1","name":"Ada","email":"ada@example.com","role":"admin","isActive":false}`), &p)
		require.NoError(t, err)
		require.Equal(t, principal.Principal{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: principal.RoleAdmin, Active: false}, p)
	})

	t.Run("missing isActive means active", func(t *testing.T) {
		var p principal.Principal
		require.NoError(t, json.Unmarshal([]byte(`{"_id":"u2","username":"bob"}`), &p))
		require.Equal(t, "u2", p.ID)
		require.Equal(t, "bob", p.Name)
		require.Equal(t, principal.RoleUser, p.Role)
		require.True(t, p.Active)
	})

	t.Run("unknown role read as user", func(t *testing.T) {
		var p principal.Principal
		require.NoError(t, json.Unmarshal([]byte(`{"id":"u3","email":"ed@example.com","role":"editor","isActive":true}`), &p))
		require.Equal(t, principal.Principal{ID: "u3", Email: "ed@example.com", Role: principal.RoleUser, Active: true}, p)
	})
}

func TestPrincipal_RoundTripsThroughSnapshot(t *testing.T) {
	in := principal.Principal{ID: "a1", Name: "Admin", Role: principal.RoleAdmin, Active: true}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"a1","name":"Admin","role":"admin","isActive":true}`, string(data))

	var out principal.Principal
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestRole(t *testing.T) {
	require.False(t, principal.RoleAnonymous.IsAuthenticated())
	require.True(t, principal.RoleUser.IsAuthenticated())
	require.True(t, principal.RoleAdmin.IsAuthenticated())
	require.Equal(t, "admin", principal.RoleAdmin.String())

	_, err := principal.ParseRole("superuser")
	require.Error(t, err)
}

func TestPrincipal_DisplayName(t *testing.T) {
	var nilPrincipal *principal.Principal
	require.Equal(t, "", nilPrincipal.DisplayName())
	require.Equal(t, "x@example.com", (&principal.Principal{Email: "x@example.com"}).DisplayName())
}
