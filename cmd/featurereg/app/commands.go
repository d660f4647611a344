package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/featurereg/cmd/featurereg/cmd/analyze"
	"github.com/agentstation/featurereg/cmd/featurereg/cmd/export"
	"github.com/agentstation/featurereg/cmd/featurereg/cmd/records"
	"github.com/agentstation/featurereg/cmd/featurereg/cmd/review"
	"github.com/agentstation/featurereg/cmd/featurereg/cmd/serve"
	"github.com/agentstation/featurereg/cmd/featurereg/cmd/version"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(analyze.NewCommand(a))
	rootCmd.AddCommand(review.NewCommand(a))
	rootCmd.AddCommand(export.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(records.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(version.NewCommand(a))
}
