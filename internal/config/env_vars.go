package config

import "strings"

type EnvVars struct {
	AppName  string `yaml:"app_name" env:"APP_NAME" env-default:"Cirota Portal"`
	Env      string `yaml:"env" env:"ENV" env-default:"DEV"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(strings.TrimSpace(e.LogLevel))
}
