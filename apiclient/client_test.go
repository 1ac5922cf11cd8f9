package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/apiclient/apifake"
	"github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/jrsteele09/go-portal-session/principal"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail     = "reader@example.com"
	testUserPassword  = "Password123"
	testAdminEmail    = "editor@example.com"
	testAdminPassword = "AdminPass123"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []apiclient.Event
}

func (r *eventRecorder) Observe(e apiclient.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) kinds() []apiclient.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]apiclient.EventKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type testFixture struct {
	api    *apifake.Server
	server *httptest.Server
	client *apiclient.Client
	events *eventRecorder
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := apifake.New("test-secret")
	_, err := api.AddUser(testUserEmail, testUserPassword, "Reader")
	require.NoError(t, err)
	_, err = api.AddAdmin(testAdminEmail, testAdminPassword, "Editor")
	require.NoError(t, err)

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	events := &eventRecorder{}
	client, err := apiclient.New(server.URL, apiclient.WithObserver(events))
	require.NoError(t, err)

	return &testFixture{api: api, server: server, client: client, events: events}
}

func TestNew_InvalidOrigin(t *testing.T) {
	_, err := apiclient.New("not a url")
	require.Error(t, err)
}

func TestClient_Login(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		res, err := f.client.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)
		require.NotEmpty(t, res.Token)
		require.Equal(t, testUserEmail, res.Principal.Email)
		require.Equal(t, principal.RoleUser, res.Principal.Role)
		require.True(t, res.Principal.Active)
	})

	t.Run("wrong password is a validation failure", func(t *testing.T) {
		_, err := f.client.Login(ctx, testUserEmail, "wrong")
		require.ErrorIs(t, err, errors.ErrValidation)
		require.NotErrorIs(t, err, errors.ErrUnauthorized)
	})

	t.Run("blocked account is forbidden", func(t *testing.T) {
		require.NoError(t, f.api.SetActive(testUserEmail, false))
		defer func() { require.NoError(t, f.api.SetActive(testUserEmail, true)) }()

		_, err := f.client.Login(ctx, testUserEmail, testUserPassword)
		require.ErrorIs(t, err, errors.ErrForbidden)
	})

	t.Run("login failures carry no bearer so emit no events", func(t *testing.T) {
		require.Empty(t, f.events.kinds())
	})
}

func TestClient_AdminLogin(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	res, err := f.client.AdminLogin(ctx, testAdminEmail, testAdminPassword)
	require.NoError(t, err)
	require.Equal(t, principal.RoleAdmin, res.Principal.Role)

	_, err = f.client.AdminLogin(ctx, testUserEmail, testUserPassword)
	require.ErrorIs(t, err, errors.ErrValidation)
}

func TestClient_Verify(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	userToken, err := f.api.IssueToken(testUserEmail)
	require.NoError(t, err)
	adminToken, err := f.api.IssueToken(testAdminEmail)
	require.NoError(t, err)

	t.Run("user token", func(t *testing.T) {
		p, err := f.client.Verify(ctx, userToken)
		require.NoError(t, err)
		require.Equal(t, testUserEmail, p.Email)
	})

	t.Run("admin verify with admin token", func(t *testing.T) {
		v, err := f.client.AdminVerify(ctx, adminToken)
		require.NoError(t, err)
		require.True(t, v.IsAdmin)
		require.Equal(t, principal.RoleAdmin, v.Principal.Role)
	})

	t.Run("admin verify with user token", func(t *testing.T) {
		_, err := f.client.AdminVerify(ctx, userToken)
		require.ErrorIs(t, err, errors.ErrForbidden)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.client.Verify(ctx, "garbage")
		require.ErrorIs(t, err, errors.ErrUnauthorized)
	})

	require.Equal(t, []apiclient.EventKind{apiclient.ForbiddenDetected, apiclient.UnauthorizedDetected}, f.events.kinds())
	f.events.mu.Lock()
	require.Equal(t, userToken, f.events.events[0].Token)
	require.Equal(t, apiclient.PathAdminVerify, f.events.events[0].Path)
	require.Equal(t, "garbage", f.events.events[1].Token)
	f.events.mu.Unlock()
}

func TestClient_Status(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	token, err := f.api.IssueToken(testUserEmail)
	require.NoError(t, err)

	active, err := f.client.Status(ctx, apiclient.StaticToken(token))
	require.NoError(t, err)
	require.True(t, active)

	require.NoError(t, f.api.SetActive(testUserEmail, false))
	active, err = f.client.Status(ctx, apiclient.StaticToken(token))
	require.NoError(t, err)
	require.False(t, active)
}

func TestClient_MaintenanceResponses(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	f.api.SetMaintenanceMode(true)
	settings, err := f.client.PublicSettings(ctx)
	require.NoError(t, err)
	require.True(t, settings.MaintenanceMode)
	require.Empty(t, f.events.kinds())

	f.api.SetServiceMaintenance(true)
	_, err = f.client.Login(ctx, testUserEmail, testUserPassword)
	require.ErrorIs(t, err, errors.ErrMaintenance)
	require.ErrorIs(t, err, errors.ErrServiceUnavailable)

	var se *apiclient.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "Site under maintenance", se.Message)
	require.Equal(t, []apiclient.EventKind{apiclient.MaintenanceDetected}, f.events.kinds())
}

func TestClient_PlainServiceUnavailable(t *testing.T) {
	events := &eventRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"overloaded"}`))
	}))
	defer server.Close()

	client, err := apiclient.New(server.URL, apiclient.WithObserver(events))
	require.NoError(t, err)

	_, err = client.PublicSettings(context.Background())
	require.ErrorIs(t, err, errors.ErrServiceUnavailable)
	require.NotErrorIs(t, err, errors.ErrMaintenance)
	require.Empty(t, events.kinds())
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	origin := server.URL
	server.Close()

	client, err := apiclient.New(origin)
	require.NoError(t, err)

	_, err = client.PublicSettings(context.Background())
	require.ErrorIs(t, err, errors.ErrTransport)
}

func TestClient_InvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":""}`))
	}))
	defer server.Close()

	client, err := apiclient.New(server.URL)
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "a@example.com", "pw")
	require.ErrorIs(t, err, errors.ErrInvalidResponse)
}

func TestClient_RequestID(t *testing.T) {
	ids := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"maintenanceMode":false}`))
	}))
	defer server.Close()

	client, err := apiclient.New(server.URL)
	require.NoError(t, err)

	_, err = client.PublicSettings(context.Background())
	require.NoError(t, err)
	require.Len(t, <-ids, 36)
}
