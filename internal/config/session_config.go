package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	SessionStoreFile   = "file"
	SessionStoreSQLite = "sqlite"

	defaultDataFolder = "./data"
)

type Session struct {
	Store string `yaml:"session_store" env:"SESSION_STORE" env-default:"file"`
	Dir   string `yaml:"session_dir" env:"SESSION_DIR"`
	Key   string `yaml:"session_key" env:"SESSION_KEY" env-default:"cirota.auth"`
}

var _ SessionConfig = Session{}

func (s Session) GetSessionStore() string {
	store := strings.ToLower(strings.TrimSpace(s.Store))
	if store == "" {
		return SessionStoreFile
	}
	return store
}

// GetSessionDir returns the directory holding the persisted session. It
// defaults to a "cirota" folder under the user's config directory.
func (s Session) GetSessionDir() string {
	if s.Dir != "" {
		return s.Dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return defaultDataFolder
	}
	return filepath.Join(base, "cirota")
}

func (s Session) GetSessionKey() string {
	return s.Key
}
