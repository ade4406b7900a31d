// Package sqlitestore keeps session records in a SQLite database, one row per
// storage key.
package sqlitestore

import (
	"database/sql"
	"time"

	"github.com/jrsteele09/cirota-portal/sessions"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ sessions.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	key        TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	updated_at DATETIME NOT NULL
)`

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type Store struct {
	db  *sql.DB
	key string
	log zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report unreadable records.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.log = logger
	}
}

// Open opens (creating if needed) the database at path and returns a store for key.
func Open(path, key string, options ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore Open] opening database")
	}
	s, err := New(db, key, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New returns a store for key on an open database, creating the table if needed.
func New(db *sql.DB, key string, options ...Option) (*Store, error) {
	if key == "" {
		return nil, errors.New("[sqlitestore New] storage key is required")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "[sqlitestore New] creating sessions table")
	}

	s := &Store{db: db, key: key, log: log.Logger}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load() *sessions.Session {
	var record string
	err := s.db.QueryRow(`SELECT record FROM sessions WHERE key = ?`, s.key).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Debug().Str("key", s.key).Msg("No stored session")
		return nil
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("Stored session unreadable, treating as signed out")
		return nil
	}

	session, err := sessions.Unmarshal([]byte(record))
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("Stored session corrupt, treating as signed out")
		return nil
	}
	return session
}

func (s *Store) Save(session *sessions.Session) error {
	if session == nil {
		if _, err := s.db.Exec(`DELETE FROM sessions WHERE key = ?`, s.key); err != nil {
			return errors.Wrap(err, "[sqlitestore Save] deleting session record")
		}
		return nil
	}

	data, err := sessions.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "[sqlitestore Save] encoding session")
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (key, record, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		s.key, string(data), NowTimeFunc().UTC())
	if err != nil {
		return errors.Wrap(err, "[sqlitestore Save] writing session record")
	}
	return nil
}
