package maintenance

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/principal"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultBypassPath is the admin login surface, which stays reachable during
// maintenance so an admin can still sign in.
const DefaultBypassPath = "/admin/login"

// SettingsProber reads the public site settings.
type SettingsProber interface {
	PublicSettings(ctx context.Context) (apiclient.PublicSettings, error)
}

// Status is the combined maintenance view.
type Status struct {
	Active bool `json:"active"`
	// Forced is set once any API response has signalled maintenance. It is
	// never cleared for the lifetime of the Gate.
	Forced      bool             `json:"forced"`
	BypassRoles []principal.Role `json:"bypassRoles"`
	CheckedAt   time.Time        `json:"checkedAt,omitzero"`
}

// Gate combines the public settings probe with maintenance signals observed
// on API responses.
type Gate struct {
	prober      SettingsProber
	bypassPaths []string
	nowTime     func() time.Time

	mu        sync.RWMutex
	declared  bool
	forced    bool
	checkedAt time.Time
}

type Option func(*Gate)

// WithBypassPaths replaces the paths that are served during maintenance.
func WithBypassPaths(paths ...string) Option {
	return func(g *Gate) {
		g.bypassPaths = paths
	}
}

func WithNowTime(nowFunc func() time.Time) Option {
	return func(g *Gate) {
		g.nowTime = nowFunc
	}
}

func NewGate(prober SettingsProber, options ...Option) (*Gate, error) {
	if prober == nil {
		return nil, pkgerrors.New("[NewGate] settings prober is required")
	}
	g := &Gate{
		prober:      prober,
		bypassPaths: []string{DefaultBypassPath},
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Probe reads the public settings. A failed probe leaves the previous value
// in place and is returned for the caller to log; it never fails boot.
func (g *Gate) Probe(ctx context.Context) error {
	settings, err := g.prober.PublicSettings(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "[Gate Probe] public settings")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if settings.MaintenanceMode != g.declared {
		log.Info().Bool("maintenance", settings.MaintenanceMode).Msg("maintenance mode changed")
	}
	g.declared = settings.MaintenanceMode
	g.checkedAt = g.nowTime()
	return nil
}

// Observe implements apiclient.Observer.
func (g *Gate) Observe(e apiclient.Event) {
	if e.Kind != apiclient.MaintenanceDetected {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.forced {
		log.Warn().Str("path", e.Path).Msg("maintenance signalled by api response")
	}
	g.forced = true
}

// Active reports whether the site is in maintenance.
func (g *Gate) Active() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.declared || g.forced
}

func (g *Gate) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Status{
		Active:      g.declared || g.forced,
		Forced:      g.forced,
		BypassRoles: []principal.Role{principal.RoleAdmin},
		CheckedAt:   g.checkedAt,
	}
}

// Bypass reports whether role, on path, ignores maintenance.
func (g *Gate) Bypass(role principal.Role, path string) bool {
	return role == principal.RoleAdmin || slices.Contains(g.bypassPaths, path)
}

// Blocks reports whether maintenance replaces the response for role on path.
func (g *Gate) Blocks(role principal.Role, path string) bool {
	return g.Active() && !g.Bypass(role, path)
}
