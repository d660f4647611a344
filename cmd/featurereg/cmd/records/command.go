// Package records provides commands that load and dump stored feature
// records.
package records

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/featurereg/cmd/application"
	"github.com/agentstation/featurereg/internal/cmd/alerts"
	"github.com/agentstation/featurereg/internal/cmd/cmdutil"
	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/pkg/constants"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/logging"
)

// NewCommand creates the records command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "records",
		GroupID:      "management",
		Short:        "Import and dump stored feature records",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newImportCommand(app))
	cmd.AddCommand(newDumpCommand(app))
	return cmd
}

func newImportCommand(app application.Application) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Insert feature records from a YAML document",
		Long: `Import reads a YAML document with a top-level records list and inserts
every record into the configured store. Records without an id get a
random one, records without created_at get the current time, and an empty
review status means pending.

Nothing is inserted when any record is invalid or its id already exists.`,
		Example: `  featurereg records import seed.yaml
  featurereg records dump | featurereg records import - --dry-run`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, app, args[0], dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate without inserting")
	return cmd
}

func runImport(cmd *cobra.Command, app application.Application, path string, dryRun bool) error {
	var r io.Reader = cmd.InOrStdin()
	name := "stdin"
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return errors.WrapIO("open", path, err)
		}
		defer func() { _ = f.Close() }()
		r, name = f, path
	}

	recs, err := store.ParseRecords(r, name, time.Now())
	if err != nil {
		return err
	}

	format, err := cmdutil.Format(app)
	if err != nil {
		return err
	}
	aw := alerts.NewWriter(cmd.ErrOrStderr(), format, app.UseColor())
	if dryRun {
		return aw.Write(alerts.Info("%d records are valid", len(recs)))
	}

	s, err := app.Store()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), constants.CommandTimeout)
	defer cancel()
	if err := store.Import(logging.WithLogger(ctx, app.Logger()), s, recs); err != nil {
		return err
	}
	return aw.Write(alerts.Success("Imported %d records from %s", len(recs), name))
}

func newDumpCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:          "dump",
		Short:        "Write every stored record as a YAML import document",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.Store()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), constants.CommandTimeout)
			defer cancel()

			recs, err := s.List(ctx)
			if err != nil {
				return errors.WrapFetch("store", err)
			}
			data, err := store.MarshalRecords(recs)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
