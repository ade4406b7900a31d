package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	OAuthConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type APIConfig interface {
	GetBaseURL() string
	GetHTTPTimeout() time.Duration
	GetUserAgent() string
}

type SessionConfig interface {
	GetSessionStore() string
	GetSessionDir() string
	GetSessionKey() string
}

type mainConfig struct {
	EnvVars `yaml:",inline"`
	API     `yaml:",inline"`
	Session `yaml:",inline"`
	OAuth   `yaml:",inline"`
}

var _ Config = mainConfig{}

// New reads the configuration from the environment.
func New() (Config, error) {
	var c mainConfig
	if err := cleanenv.ReadEnv(&c); err != nil {
		return nil, errors.Wrap(err, "[config New] reading environment")
	}
	return c, nil
}

// Load reads the YAML file at path and then applies environment overrides.
// An empty path is the same as New.
func Load(path string) (Config, error) {
	if path == "" {
		return New()
	}
	var c mainConfig
	if err := cleanenv.ReadConfig(path, &c); err != nil {
		return nil, errors.Wrapf(err, "[config Load] reading %s", path)
	}
	return c, nil
}
