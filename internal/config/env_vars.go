package config

import (
	"fmt"
	"strings"
)

type EnvVars struct {
	Port          string `env:"PORTAL_PORT" envDefault:"8080"`
	AppName       string `env:"PORTAL_APP_NAME" envDefault:"Portal"`
	Env           string `env:"PORTAL_ENV" envDefault:"DEV"`
	LogLevel      string `env:"PORTAL_LOG_LEVEL" envDefault:"info"`
	FakeAPISecret string `env:"PORTAL_FAKE_API_SECRET" envDefault:"portal-dev-secret"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port != "" && !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetFakeAPISecret is the HMAC secret used by the development fake API.
func (e EnvVars) GetFakeAPISecret() string {
	return e.FakeAPISecret
}
