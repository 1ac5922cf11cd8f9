package apifake_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/apiclient/apifake"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestServer_ExpiredToken(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	api := apifake.New("secret", apifake.WithNowTime(clock.Now))
	_, err := api.AddUser("a@example.com", "Password123", "A")
	require.NoError(t, err)

	token, err := api.IssueToken("a@example.com")
	require.NoError(t, err)

	server := httptest.NewServer(api)
	defer server.Close()

	get := func() int {
		req, err := http.NewRequest(http.MethodGet, server.URL+apiclient.PathVerify, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	require.Equal(t, http.StatusOK, get())
	clock.Advance(48 * time.Hour)
	require.Equal(t, http.StatusUnauthorized, get())
}

func TestServer_ForeignSignature(t *testing.T) {
	issuer := apifake.New("one")
	_, err := issuer.AddUser("a@example.com", "Password123", "A")
	require.NoError(t, err)
	token, err := issuer.IssueToken("a@example.com")
	require.NoError(t, err)

	other := httptest.NewServer(apifake.New("two"))
	defer other.Close()

	req, err := http.NewRequest(http.MethodGet, other.URL+apiclient.PathStatus, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_RecordsCalls(t *testing.T) {
	api := apifake.New("secret")
	server := httptest.NewServer(api)
	defer server.Close()

	resp, err := http.Post(server.URL+apiclient.PathLogin, "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(server.URL + apiclient.PathPublicSettings)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, []string{apiclient.PathLogin, apiclient.PathPublicSettings}, api.Calls())
	api.ResetCalls()
	require.Empty(t, api.Calls())
}
