package config

import (
	"strings"
	"time"
)

type API struct {
	BaseURL     string        `yaml:"api_url" env:"API_URL" env-default:"http://localhost:8000"`
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT" env-default:"30s"`
	UserAgent   string        `yaml:"user_agent" env:"USER_AGENT" env-default:"cirota-portal"`
}

var _ APIConfig = API{}

// GetBaseURL returns the API root without a trailing slash (e.g. "http://localhost:8000")
func (a API) GetBaseURL() string {
	return strings.TrimRight(a.BaseURL, "/")
}

func (a API) GetHTTPTimeout() time.Duration {
	return a.HTTPTimeout
}

func (a API) GetUserAgent() string {
	return a.UserAgent
}
