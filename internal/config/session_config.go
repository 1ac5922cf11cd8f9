package config

import (
	"strings"
	"time"
)

type Session struct {
	APIOrigin          string        `env:"PORTAL_API_ORIGIN" envDefault:"http://localhost:5000"`
	RequestTimeout     time.Duration `env:"PORTAL_REQUEST_TIMEOUT" envDefault:"10s"`
	StatusPollInterval time.Duration `env:"PORTAL_STATUS_POLL_INTERVAL" envDefault:"30s"`
}

var _ SessionConfig = Session{}

// GetAPIOrigin returns the single origin every API call is made against,
// without a trailing slash.
func (s Session) GetAPIOrigin() string {
	return strings.TrimRight(s.APIOrigin, "/")
}

func (s Session) GetRequestTimeout() time.Duration {
	return s.RequestTimeout
}

// GetStatusPollInterval is the revocation poll period.
func (s Session) GetStatusPollInterval() time.Duration {
	if s.StatusPollInterval <= 0 {
		return 30 * time.Second
	}
	return s.StatusPollInterval
}
