// Package app wires configuration, logging and the lazily created
// reconciliation client for the featurereg CLI.
package app

import (
	"context"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/cmd/application"
	"github.com/agentstation/featurereg/internal/server"
	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/internal/transport"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/logging"
)

var _ application.Application = (*App)(nil)

// App holds the CLI's configuration and shared dependencies.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Store and client are created on first use, once.
	mu     sync.RWMutex
	store  store.Store
	client featurereg.Client
}

// New creates an App with configuration loaded from the default locations.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// ServerConfig returns the configured API server settings.
func (a *App) ServerConfig() server.Config { return a.config.Server }

// OutputFormat returns the --format value or its configured default.
func (a *App) OutputFormat() string { return a.config.Format }

// AutoRefresh reports whether periodic re-analysis is enabled.
func (a *App) AutoRefresh() bool { return a.config.AutoRefresh }

// UseColor reports whether stdout is a terminal and color is not disabled.
func (a *App) UseColor() bool {
	if a.config.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Store returns the record store, opening it on first use.
func (a *App) Store() (store.Store, error) {
	a.mu.RLock()
	if a.store != nil {
		s := a.store
		a.mu.RUnlock()
		return s, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openStoreLocked()
}

func (a *App) openStoreLocked() (store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	ctx := logging.WithLogger(context.Background(), a.logger)
	s, err := store.Open(ctx, a.config.Store)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("driver", a.config.Store.Driver).Msg("Opened record store")
	a.store = s
	return s, nil
}

// Client returns the reconciliation client, creating it on first use.
func (a *App) Client() (featurereg.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	s, err := a.openStoreLocked()
	if err != nil {
		return nil, err
	}

	opts, err := a.clientOptions(s)
	if err != nil {
		return nil, err
	}
	c, err := featurereg.New(opts...)
	if err != nil {
		return nil, errors.NewConfigError("client", "creating reconciliation client", err)
	}
	a.client = c
	return c, nil
}

func (a *App) clientOptions(s store.Store) ([]featurereg.Option, error) {
	opts := []featurereg.Option{
		featurereg.WithStore(s),
		featurereg.WithAnalysisConfig(a.config.Analysis),
		featurereg.WithActionConfig(a.config.Actions),
	}

	switch {
	case a.config.RegistryURL != "":
		auth, err := transport.ParseAuth(a.config.RegistryAuth)
		if err != nil {
			return nil, err
		}
		client := transport.New(auth, a.config.RegistryToken)
		opts = append(opts, featurereg.WithRegistry(transport.NewRegistry(a.config.RegistryURL, client)))
	case a.config.RegistryPath != "":
		opts = append(opts, featurereg.WithRegistry(features.FileRegistry{Path: a.config.RegistryPath}))
	}

	if a.config.RefreshInterval > 0 {
		opts = append(opts, featurereg.WithRefreshInterval(a.config.RefreshInterval))
	}
	return opts, nil
}

// Shutdown stops background work and closes the store.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop auto refresh during shutdown")
		}
		a.client = nil
	}
	if a.store != nil {
		err := a.store.Close()
		a.store = nil
		if err != nil {
			return errors.WrapIO("close", "record store", err)
		}
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets the record store (useful for testing).
func WithStore(s store.Store) Option {
	return func(a *App) error {
		a.store = s
		return nil
	}
}

// WithClient sets the client instance (useful for testing).
func WithClient(c featurereg.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
