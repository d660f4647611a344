// Package application provides a test double for the command application
// interface.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/featurereg"
	app "github.com/agentstation/featurereg/cmd/application"
	"github.com/agentstation/featurereg/internal/server"
	"github.com/agentstation/featurereg/internal/store"
)

// Mock implements application.Application. Nil function fields return
// zero values, a no-op logger and default server settings.
type Mock struct {
	ClientFunc       func() (featurereg.Client, error)
	StoreFunc        func() (store.Store, error)
	ServerConfigFunc func() server.Config
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string

	// AutoRefreshEnabled is returned by AutoRefresh.
	AutoRefreshEnabled bool
}

// Client returns the mock client.
func (m *Mock) Client() (featurereg.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return nil, nil
}

// Store returns the mock store.
func (m *Mock) Store() (store.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc()
	}
	return nil, nil
}

// ServerConfig returns the mock server settings.
func (m *Mock) ServerConfig() server.Config {
	if m.ServerConfigFunc != nil {
		return m.ServerConfigFunc()
	}
	return server.DefaultConfig()
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the mock format, json by default so tests can
// decode command output.
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// AutoRefresh returns AutoRefreshEnabled.
func (m *Mock) AutoRefresh() bool { return m.AutoRefreshEnabled }

// UseColor is always false.
func (m *Mock) UseColor() bool { return false }

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

var _ app.Application = (*Mock)(nil)

// NewMock returns a Mock serving client and s.
func NewMock(client featurereg.Client, s store.Store) *Mock {
	return &Mock{
		ClientFunc: func() (featurereg.Client, error) { return client, nil },
		StoreFunc:  func() (store.Store, error) { return s, nil },
	}
}
