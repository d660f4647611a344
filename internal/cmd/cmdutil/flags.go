// Package cmdutil provides flags shared by featurereg commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/featurereg/internal/filter"
)

// FilterFlags holds the orphan selection flags.
type FilterFlags struct {
	Options filter.Options
}

// AddFilterFlags adds orphan filter flags to a command.
func AddFilterFlags(cmd *cobra.Command) *FilterFlags {
	flags := &FilterFlags{}

	cmd.Flags().StringVar(&flags.Options.Recommendation, "recommendation", "",
		"Filter by recommendation (comma separated: keep_as_planned, archive, delete, merge, review)")
	cmd.Flags().StringVar(&flags.Options.Status, "status", "",
		"Filter by review status (comma separated: pending, kept, archived)")
	cmd.Flags().StringVar(&flags.Options.Source, "source", "",
		"Filter by record source (comma separated: auto_migration, manual_entry, registry, unknown)")
	cmd.Flags().StringVar(&flags.Options.Module, "module", "",
		"Filter by module code (comma separated)")
	cmd.Flags().StringVar(&flags.Options.Cluster, "cluster", "",
		"Filter by cluster kind: duplicate, route, variant, batch, none")
	cmd.Flags().StringVar(&flags.Options.Pattern, "filter", "",
		"Match feature code, name or route")
	cmd.Flags().StringVar(&flags.Options.PatternType, "match", "",
		"How --filter matches: auto (default), glob, regex")

	return flags
}

// Parse validates the flag values.
func (f *FilterFlags) Parse() (*filter.Orphans, error) {
	return filter.Parse(f.Options)
}

// IsSet reports whether any filter flag was given.
func (f *FilterFlags) IsSet() bool {
	return f.Options != filter.Options{}
}
