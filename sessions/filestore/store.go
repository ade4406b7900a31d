// Package filestore keeps the session record as a JSON file on disk.
package filestore

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jrsteele09/cirota-portal/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ sessions.Store = (*Store)(nil)

// Store writes one file per storage key. Records are replaced by writing a
// temporary file in the same directory and renaming it over the old one, so a
// reader sees either the previous record or the new one.
type Store struct {
	dir  string
	path string
	log  zerolog.Logger
	lock sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report unreadable records.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.log = logger
	}
}

// New returns a store for key inside dir. The directory is created on the
// first Save.
func New(dir, key string, options ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("[filestore New] directory is required")
	}
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return nil, errors.Errorf("[filestore New] invalid storage key %q", key)
	}

	s := &Store{
		dir:  dir,
		path: filepath.Join(dir, key+".json"),
		log:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Path returns the file holding the record.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() *sessions.Session {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug().Str("path", s.path).Msg("No stored session")
		return nil
	}
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("Stored session unreadable, treating as signed out")
		return nil
	}

	session, err := sessions.Unmarshal(data)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("Stored session corrupt, treating as signed out")
		return nil
	}
	return session
}

func (s *Store) Save(session *sessions.Session) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if session == nil {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrap(err, "[filestore Save] removing session record")
		}
		return nil
	}

	data, err := sessions.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "[filestore Save] encoding session")
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return errors.Wrap(err, "[filestore Save] creating session directory")
	}
	return s.replace(data)
}

func (s *Store) replace(data []byte) (returnError error) {
	tmp, err := os.CreateTemp(s.dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "[filestore Save] creating temporary file")
	}
	defer func() {
		if returnError != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "[filestore Save] writing session record")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "[filestore Save] syncing session record")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filestore Save] closing session record")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "[filestore Save] replacing session record")
	}
	return nil
}
