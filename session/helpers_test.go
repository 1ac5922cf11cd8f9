package session_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/apiclient/apifake"
	"github.com/jrsteele09/go-portal-session/credentials"
	"github.com/jrsteele09/go-portal-session/principal"
	"github.com/jrsteele09/go-portal-session/session"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testUserEmail     = "reader@example.com"
	testUserPassword  = "Password123"
	testAdminEmail    = "editor@example.com"
	testAdminPassword = "AdminPass123"
	testPollInterval  = 20 * time.Millisecond
	eventuallyWait    = 2 * time.Second
)

// testFixture holds all test dependencies
type testFixture struct {
	api     *apifake.Server
	server  *httptest.Server
	client  *apiclient.Client
	store   *credentials.InMemoryStore
	manager *session.Manager
}

func setupTestFixture(t *testing.T, fakeOptions ...apifake.Option) *testFixture {
	t.Helper()

	api := apifake.New("test-secret", fakeOptions...)
	_, err := api.AddUser(testUserEmail, testUserPassword, "Reader")
	require.NoError(t, err)
	_, err = api.AddAdmin(testAdminEmail, testAdminPassword, "Editor")
	require.NoError(t, err)

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	client, err := apiclient.New(server.URL)
	require.NoError(t, err)

	f := &testFixture{api: api, server: server, client: client, store: credentials.NewInMemoryStore()}
	f.manager = f.newManager(t)
	return f
}

func (f *testFixture) newManager(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(f.client, f.store, session.WithPollInterval(testPollInterval))
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

// storeToken puts a freshly issued token for email in the credential store.
func (f *testFixture) storeToken(t *testing.T, email string) string {
	t.Helper()
	token, err := f.api.IssueToken(email)
	require.NoError(t, err)
	require.NoError(t, f.store.Save(token, nil))
	return token
}

func (f *testFixture) requireStoreEmpty(t *testing.T) {
	t.Helper()
	cred, err := f.store.Load()
	require.NoError(t, err)
	require.Nil(t, cred)
}

// scriptedAPI lets a test decide every response and records call order.
type scriptedAPI struct {
	mu    sync.Mutex
	calls []string

	adminVerify func(token string) (apiclient.AdminVerification, error)
	verify      func(token string) (*principal.Principal, error)
	status      func() (bool, error)
	login       func(ctx context.Context) (apiclient.LoginResult, error)
}

func (s *scriptedAPI) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *scriptedAPI) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *scriptedAPI) AdminVerify(ctx context.Context, token string) (apiclient.AdminVerification, error) {
	s.record("admin-verify")
	return s.adminVerify(token)
}

func (s *scriptedAPI) Verify(ctx context.Context, token string) (*principal.Principal, error) {
	s.record("verify")
	return s.verify(token)
}

func (s *scriptedAPI) Status(ctx context.Context, src oauth2.TokenSource) (bool, error) {
	s.record("status")
	if s.status == nil {
		return true, nil
	}
	return s.status()
}

func (s *scriptedAPI) Login(ctx context.Context, email, password string) (apiclient.LoginResult, error) {
	s.record("login")
	return s.login(ctx)
}

func (s *scriptedAPI) AdminLogin(ctx context.Context, email, password string) (apiclient.LoginResult, error) {
	s.record("admin-login")
	return s.login(ctx)
}
