// Package application defines what featurereg commands need from the
// running program.
//
// Commands accept this interface rather than the concrete App type, so they
// can be tested with internal/cmd/application.Mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func() (featurereg.Client, error) {
//	        return client, nil
//	    },
//	}
//	cmd := analyze.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/internal/server"
	"github.com/agentstation/featurereg/internal/store"
)

// Application provides the dependencies commands share.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the lazily created reconciliation client.
	Client() (featurereg.Client, error)

	// Store returns the record store backing Client.
	Store() (store.Store, error)

	// ServerConfig returns the configured API server settings. Command
	// flags override them.
	ServerConfig() server.Config

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, wide,
	// json or yaml). Empty means detect from the terminal.
	OutputFormat() string

	// AutoRefresh reports whether serve should re-run analysis on the
	// configured interval.
	AutoRefresh() bool

	// UseColor reports whether output may be colored.
	UseColor() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
