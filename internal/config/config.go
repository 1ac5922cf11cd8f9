package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	SessionConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetFakeAPISecret() string
}

type SessionConfig interface {
	GetAPIOrigin() string
	GetRequestTimeout() time.Duration
	GetStatusPollInterval() time.Duration
}

type mainConfig struct {
	EnvVars
	Session
	Store
}

// New reads the configuration from the environment, applying defaults for
// anything that is not set.
func New() (Config, error) {
	c := mainConfig{}
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config New] parse env: %w", err)
	}
	return c, nil
}
