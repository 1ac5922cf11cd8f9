package session

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/credentials"
	"github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/jrsteele09/go-portal-session/principal"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// API is the subset of the portal API the Manager drives.
type API interface {
	Prober
	StatusChecker
	Login(ctx context.Context, email, password string) (apiclient.LoginResult, error)
	AdminLogin(ctx context.Context, email, password string) (apiclient.LoginResult, error)
}

type observable interface {
	AddObserver(apiclient.Observer)
}

// Manager owns the one session of the process. It is the only writer of the
// credential store; everything else reads Snapshot or subscribes.
type Manager struct {
	api      API
	store    credentials.Store
	verifier *Verifier
	monitor  *RevocationMonitor

	pollInterval time.Duration

	mu    sync.RWMutex
	snap  Snapshot
	token string
	// attempt orders boot, login and logout: only the newest may publish.
	attempt uint64
	// generation identifies the current session; revocations aimed at an
	// older generation are ignored.
	generation  uint64
	closed      bool
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

type ManagerOption func(*Manager)

// WithPollInterval sets the revocation poll period.
func WithPollInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.pollInterval = d
	}
}

// NewManager creates a Manager in the booting state. If api can be observed
// (as *apiclient.Client can) the Manager registers itself for unauthorized
// and forbidden events.
func NewManager(api API, store credentials.Store, options ...ManagerOption) (*Manager, error) {
	if api == nil {
		return nil, pkgerrors.New("[NewManager] api is required")
	}
	if store == nil {
		return nil, pkgerrors.New("[NewManager] credential store is required")
	}

	verifier, err := NewVerifier(api)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[NewManager]")
	}

	m := &Manager{
		api:          api,
		store:        store,
		verifier:     verifier,
		pollInterval: DefaultPollInterval,
		snap:         Snapshot{State: StateBooting, Role: principal.RoleAnonymous, Verification: principal.VerificationPending},
		subscribers:  make(map[int]func(Snapshot)),
	}
	for _, opt := range options {
		opt(m)
	}
	m.monitor = NewRevocationMonitor(api, m.pollInterval, m.revoke)

	if o, ok := api.(observable); ok {
		o.AddObserver(m)
	}
	return m, nil
}

// Snapshot returns the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.clone()
}

// Token implements oauth2.TokenSource over the current session's token.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return nil, errors.ErrNoSession
	}
	return &oauth2.Token{AccessToken: m.token, TokenType: "Bearer"}, nil
}

// Subscribe registers fn for every published snapshot. Calls happen outside
// the Manager's lock; use Snapshot.Version to drop out-of-order deliveries.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// Monitor exposes the revocation monitor for inspection.
func (m *Manager) Monitor() *RevocationMonitor {
	return m.monitor
}

// Boot loads the stored credential and classifies it. Without a credential it
// resolves to anonymous without any network call.
func (m *Manager) Boot(ctx context.Context) error {
	m.mu.RLock()
	booting := m.snap.State == StateBooting
	m.mu.RUnlock()
	if !booting {
		return errors.ErrAlreadyBooted
	}

	attempt, err := m.beginAttempt()
	if err != nil {
		return err
	}

	// An unreadable store resolves anonymous without erasing anything: only
	// the verifier may condemn a credential.
	cred, err := m.store.Load()
	if err != nil {
		log.Err(err).Msg("failed to load stored credential")
	}
	if cred == nil || cred.Token == "" {
		return m.finishBoot(attempt, "", Result{Role: principal.RoleAnonymous})
	}

	return m.finishBoot(attempt, cred.Token, m.verifier.Verify(ctx, cred.Token))
}

func (m *Manager) finishBoot(attempt uint64, token string, res Result) error {
	m.mu.Lock()
	// A newer attempt only supersedes boot once it has moved the session out
	// of booting; a login that failed in the meantime leaves boot to finish.
	if m.closed || (m.attempt != attempt && m.snap.State != StateBooting) {
		m.mu.Unlock()
		return errors.ErrSuperseded
	}

	if !res.Role.IsAuthenticated() {
		if res.EraseCredential {
			if err := m.store.Clear(); err != nil {
				log.Err(err).Msg("failed to erase rejected credential")
			}
		}
		reason := ReasonNone
		if res.Blocked {
			reason = ReasonBlocked
		}
		verification := principal.VerificationPending
		if token != "" {
			verification = principal.VerificationInvalid
		}
		m.enterAnonymousLocked(reason, verification)
		snaps, subs := m.publishLocked()
		m.mu.Unlock()
		m.notify(snaps, subs)
		log.Info().Msg("session booted anonymous")
		return nil
	}

	if err := m.store.Save(token, res.Principal); err != nil {
		log.Err(err).Msg("failed to refresh stored principal")
	}
	m.enterAuthenticatedLocked(token, res.Role, res.Principal)
	snaps, subs := m.publishLocked()
	m.mu.Unlock()
	m.notify(snaps, subs)
	log.Info().Stringer("role", res.Role).Msg("session verified")
	return nil
}

// Login signs a user in. On failure the session is left as it was and the
// error is both returned and kept as LastError.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	return m.login(ctx, principal.RoleUser, email, password, m.api.Login)
}

// AdminLogin signs an admin in through the admin login endpoint.
func (m *Manager) AdminLogin(ctx context.Context, email, password string) error {
	return m.login(ctx, principal.RoleAdmin, email, password, m.api.AdminLogin)
}

type loginFunc func(ctx context.Context, email, password string) (apiclient.LoginResult, error)

func (m *Manager) login(ctx context.Context, role principal.Role, email, password string, call loginFunc) error {
	attempt, err := m.beginAttempt()
	if err != nil {
		return err
	}

	res, err := call(ctx, email, password)
	if err == nil && !res.Principal.Active {
		err = pkgerrors.Wrap(errors.ErrForbidden, "account inactive")
	}

	m.mu.Lock()
	if m.attempt != attempt {
		m.mu.Unlock()
		return errors.ErrSuperseded
	}

	if err == nil {
		p := res.Principal.WithRole(role)
		if saveErr := m.store.Save(res.Token, &p); saveErr != nil {
			err = pkgerrors.Wrap(saveErr, "[Login] persist credential")
		} else {
			m.enterAuthenticatedLocked(res.Token, role, &p)
		}
	}
	if err != nil {
		m.snap.LastError = err
	}

	snaps, subs := m.publishLocked()
	m.mu.Unlock()
	m.notify(snaps, subs)

	if err != nil {
		log.Info().Err(err).Stringer("role", role).Msg("login failed")
		return err
	}
	log.Info().Stringer("role", role).Msg("login succeeded")
	return nil
}

// Logout ends the session from any state. It supersedes any boot or login
// still in flight.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.attempt++

	m.snap.State = StateLoggingOut
	m.snap.Role = principal.RoleAnonymous
	m.snap.Principal = nil
	m.token = ""
	loggingOut, _ := m.publishLocked()

	if err := m.store.Clear(); err != nil {
		log.Err(err).Msg("failed to clear credential on logout")
	}
	m.enterAnonymousLocked(ReasonNone, principal.VerificationPending)
	snaps, subs := m.publishLocked()
	m.mu.Unlock()

	m.notify(append(loggingOut, snaps...), subs)
}

// ExternalInvalidate ends an authenticated session on behalf of the server,
// recording why. It is a no-op unless the session is user or admin.
func (m *Manager) ExternalInvalidate(reason Reason) {
	m.mu.RLock()
	generation := m.generation
	m.mu.RUnlock()
	m.revoke(generation, reason)
}

// Observe implements apiclient.Observer. Only events raised by a request
// carrying the current token count.
func (m *Manager) Observe(e apiclient.Event) {
	var reason Reason
	switch e.Kind {
	case apiclient.UnauthorizedDetected:
		reason = ReasonExpired
	case apiclient.ForbiddenDetected:
		reason = ReasonBlocked
	default:
		return
	}

	m.mu.RLock()
	current := m.token != "" && e.Token == m.token
	generation := m.generation
	m.mu.RUnlock()

	if current {
		m.revoke(generation, reason)
	}
}

func (m *Manager) revoke(generation uint64, reason Reason) {
	m.mu.Lock()
	if m.generation != generation || !m.snap.Role.IsAuthenticated() {
		m.mu.Unlock()
		return
	}

	if err := m.store.Clear(); err != nil {
		log.Err(err).Msg("failed to clear revoked credential")
	}
	m.enterAnonymousLocked(reason, principal.VerificationInvalid)
	snaps, subs := m.publishLocked()
	m.mu.Unlock()

	m.notify(snaps, subs)
	log.Info().Stringer("reason", reason).Msg("session invalidated")
}

// Close stops background polling and waits for it to finish. The stored
// credential is kept.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.attempt++
	m.generation++
	m.monitor.Stop()
	done := m.monitor.Done()
	m.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (m *Manager) beginAttempt() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, errors.ErrClosed
	}
	m.attempt++
	return m.attempt, nil
}

func (m *Manager) enterAuthenticatedLocked(token string, role principal.Role, p *principal.Principal) {
	m.generation++
	m.token = token
	m.snap.State = stateForRole(role)
	m.snap.Role = role
	m.snap.Principal = p
	m.snap.Verification = principal.VerificationVerified
	m.snap.Reason = ReasonNone
	m.snap.LastError = nil

	m.monitor.Start(m.generation, &generationTokenSource{m: m, generation: m.generation})
}

func (m *Manager) enterAnonymousLocked(reason Reason, verification principal.VerificationState) {
	m.generation++
	m.token = ""
	m.snap.State = StateAnonymous
	m.snap.Role = principal.RoleAnonymous
	m.snap.Principal = nil
	m.snap.Verification = verification
	m.snap.Reason = reason
	m.snap.LastError = nil

	m.monitor.Stop()
}

func (m *Manager) publishLocked() ([]Snapshot, []func(Snapshot)) {
	m.snap.Version++
	subs := make([]func(Snapshot), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	return []Snapshot{m.snap.clone()}, subs
}

func (m *Manager) notify(snaps []Snapshot, subs []func(Snapshot)) {
	for _, s := range snaps {
		for _, fn := range subs {
			fn(s)
		}
	}
}

// generationTokenSource hands out the token only while the session it was
// created for is still current.
type generationTokenSource struct {
	m          *Manager
	generation uint64
}

func (s *generationTokenSource) Token() (*oauth2.Token, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if s.m.generation != s.generation || s.m.token == "" {
		return nil, errors.ErrNoSession
	}
	return &oauth2.Token{AccessToken: s.m.token, TokenType: "Bearer"}, nil
}
