package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jrsteele09/cirota-portal/auth"
	"github.com/jrsteele09/cirota-portal/client"
	"github.com/jrsteele09/cirota-portal/internal/config"
	"github.com/jrsteele09/cirota-portal/portal"
	"github.com/jrsteele09/cirota-portal/sessions"
	"github.com/jrsteele09/cirota-portal/sessions/filestore"
	"github.com/jrsteele09/cirota-portal/sessions/sqlitestore"
	"github.com/jrsteele09/cirota-portal/token"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const sqliteFile = "sessions.db"

// app is everything a command needs, wired from the configuration.
type app struct {
	config   config.Config
	log      zerolog.Logger
	manager  *auth.SessionManager
	portal   *portal.Portal
	registry *prometheus.Registry
	stdout   io.Writer
	stderr   io.Writer
	closers  []func() error
}

func newApp(c config.Config, stdout, stderr io.Writer) (*app, error) {
	a := &app{
		config:   c,
		log:      log.Logger,
		registry: prometheus.NewRegistry(),
		stdout:   stdout,
		stderr:   stderr,
	}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	metrics, err := client.NewMetrics(a.registry)
	if err != nil {
		a.close()
		return nil, err
	}

	holder := token.NewHolder("")
	apiClient, err := client.New(c.GetBaseURL(), holder,
		client.WithTimeout(c.GetHTTPTimeout()),
		client.WithUserAgent(c.GetUserAgent()),
		client.WithMetrics(metrics),
		client.WithLogger(a.log),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	manager, err := auth.NewSessionManager(auth.NewAuthAPI(apiClient), store, holder, auth.WithLogger(a.log))
	if err != nil {
		a.close()
		return nil, err
	}
	a.manager = manager
	a.portal = portal.New(apiClient)
	return a, nil
}

func (a *app) openStore() (sessions.Store, error) {
	dir := a.config.GetSessionDir()
	key := a.config.GetSessionKey()

	switch a.config.GetSessionStore() {
	case config.SessionStoreFile:
		return filestore.New(dir, key, filestore.WithLogger(a.log))
	case config.SessionStoreSQLite:
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
		store, err := sqlitestore.Open(filepath.Join(dir, sqliteFile), key, sqlitestore.WithLogger(a.log))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, errors.Errorf("[openStore] unknown session store %q", a.config.GetSessionStore())
	}
}

func (a *app) close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close")
		}
	}
	a.closers = nil
}

func (a *app) dumpMetrics() {
	families, err := a.registry.Gather()
	if err != nil {
		a.log.Warn().Err(err).Msg("Failed to gather metrics")
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(a.stderr, mf); err != nil {
			a.log.Warn().Err(err).Msg("Failed to write metrics")
			return
		}
	}
}

func (a *app) print(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[print] encoding output")
	}
	_, err = fmt.Fprintln(a.stdout, string(data))
	return err
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "[ensureDir] creating %s", dir)
	}
	return nil
}
