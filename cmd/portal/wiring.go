package main

import (
	"context"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/credentials"
	"github.com/jrsteele09/go-portal-session/internal/config"
	"github.com/jrsteele09/go-portal-session/maintenance"
	"github.com/jrsteele09/go-portal-session/session"
	"github.com/rs/zerolog/log"
)

// portal is one process's session layer: a single API client observed by the
// session manager and the maintenance gate.
type portal struct {
	client  *apiclient.Client
	store   credentials.Store
	manager *session.Manager
	gate    *maintenance.Gate
}

func newPortal(cfg config.Config) (*portal, error) {
	store, err := credentials.New(cfg)
	if err != nil {
		return nil, err
	}

	client, err := apiclient.New(cfg.GetAPIOrigin(), apiclient.WithTimeout(cfg.GetRequestTimeout()))
	if err != nil {
		return nil, err
	}

	manager, err := session.NewManager(client, store, session.WithPollInterval(cfg.GetStatusPollInterval()))
	if err != nil {
		return nil, err
	}

	gate, err := maintenance.NewGate(client)
	if err != nil {
		manager.Close()
		return nil, err
	}
	client.AddObserver(gate)

	return &portal{client: client, store: store, manager: manager, gate: gate}, nil
}

// start probes maintenance and boots the session. Neither failure is fatal.
func (p *portal) start(ctx context.Context) {
	if err := p.gate.Probe(ctx); err != nil {
		log.Warn().Err(err).Msg("maintenance probe failed, assuming site is up")
	}
	if err := p.manager.Boot(ctx); err != nil {
		log.Err(err).Msg("session boot failed")
	}
}

func (p *portal) Close() {
	p.manager.Close()
	if c, ok := p.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			log.Err(err).Msg("failed to close credential store")
		}
	}
}
