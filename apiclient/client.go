package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-portal-session/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const defaultTimeout = 10 * time.Second

// Client is the one HTTP client every part of the portal talks to the API
// through.
type Client struct {
	origin    string
	timeout   time.Duration
	base      http.RoundTripper
	observers *observerSet
	transport *observingTransport
	anonymous *http.Client
	nowTime   func() time.Time
}

type ClientOption func(*Client)

// WithTransport replaces the underlying round tripper (defaults to
// http.DefaultTransport).
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.base = rt
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observers.add(o)
	}
}

// WithNowTime sets the clock stamped on events (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

func New(origin string, options ...ClientOption) (*Client, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[apiclient New] invalid origin %q", origin)
	}

	c := &Client{
		origin:    strings.TrimRight(origin, "/"),
		timeout:   defaultTimeout,
		base:      http.DefaultTransport,
		observers: &observerSet{},
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(c)
	}

	c.transport = &observingTransport{base: c.base, observers: c.observers, now: c.nowTime}
	c.anonymous = &http.Client{Transport: c.transport, Timeout: c.timeout}
	return c, nil
}

// AddObserver registers o for every event emitted after the call.
func (c *Client) AddObserver(o Observer) {
	c.observers.add(o)
}

func (c *Client) Origin() string {
	return c.origin
}

// authorized returns an http.Client attaching the bearer token from src to
// every request.
func (c *Client) authorized(src oauth2.TokenSource) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: c.transport},
		Timeout:   c.timeout,
	}
}

// StaticToken wraps a fixed bearer token as a token source.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

type errorBody struct {
	Message         string `json:"message"`
	Error           string `json:"error"`
	Maintenance     bool   `json:"maintenance"`
	MaintenanceMode bool   `json:"maintenanceMode"`
}

func (b errorBody) maintenance() bool {
	return b.Maintenance || b.MaintenanceMode
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return pkgerrors.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.origin+path, body)
	if err != nil {
		return pkgerrors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return pkgerrors.Wrapf(errors.ErrTransport, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrapf(errors.ErrTransport, "%s %s: read body: %v", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return &StatusError{StatusCode: resp.StatusCode, Message: eb.text(), Maintenance: resp.StatusCode == http.StatusServiceUnavailable && eb.maintenance()}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return pkgerrors.Wrapf(errors.ErrInvalidResponse, "%s %s: %v", method, path, err)
	}
	return nil
}
