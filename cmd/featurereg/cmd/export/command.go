// Package export provides the export command.
package export

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/featurereg/cmd/application"
	"github.com/agentstation/featurereg/internal/cmd/alerts"
	"github.com/agentstation/featurereg/internal/cmd/cmdutil"
	"github.com/agentstation/featurereg/pkg/constants"
	"github.com/agentstation/featurereg/pkg/errors"
	pkgexport "github.com/agentstation/featurereg/pkg/export"
	"github.com/agentstation/featurereg/pkg/logging"
)

type options struct {
	output string
	escape bool
	filter *cmdutil.FilterFlags
}

// NewCommand creates the export command.
func NewCommand(app application.Application) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "core",
		Short:   "Export orphans as CSV",
		Long: `Export runs a fresh analysis pass and writes the matching orphans as CSV
with one row per orphan, including its recommendation and cluster
membership.

Use --escape when the file will be opened in a spreadsheet: cells that
start with =, +, - or @ are prefixed so they are not evaluated.`,
		Example: `  # All orphans to stdout
  featurereg export

  # Delete candidates to a timestamped file in ./reports
  featurereg export --recommendation delete --output reports/

  # Spreadsheet-safe export
  featurereg export --escape --output orphans.csv`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "f", "",
		"File or directory to write (default stdout)")
	cmd.Flags().BoolVar(&opts.escape, "escape", false,
		"Escape cells that spreadsheets would evaluate as formulas")
	opts.filter = cmdutil.AddFilterFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, app application.Application, opts *options) error {
	f, err := opts.filter.Parse()
	if err != nil {
		return err
	}
	client, err := app.Client()
	if err != nil {
		return err
	}

	var csvOpts []pkgexport.Option
	if opts.escape {
		csvOpts = append(csvOpts, pkgexport.WithFormulaEscaping())
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.AnalysisTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, app.Logger())

	if opts.output == "" {
		return client.ExportCSV(ctx, cmd.OutOrStdout(), f.Keep, csvOpts...)
	}

	path := resolvePath(opts.output, time.Now())
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := writeAndClose(file, func(w io.Writer) error {
		return client.ExportCSV(ctx, w, f.Keep, csvOpts...)
	}); err != nil {
		_ = os.Remove(path)
		return err
	}

	app.Logger().Info().Str("path", path).Msg("Exported orphans")
	format, err := cmdutil.Format(app)
	if err != nil {
		return err
	}
	return alerts.NewWriter(cmd.ErrOrStderr(), format, app.UseColor()).
		Write(alerts.Success("Exported orphans to %s", path))
}

// resolvePath names a file inside p when p is an existing directory or ends
// with a separator.
func resolvePath(p string, now time.Time) string {
	name := "orphans-" + now.UTC().Format(constants.TimeFormatFilename) + ".csv"
	if os.IsPathSeparator(p[len(p)-1]) {
		return filepath.Join(p, name)
	}
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return filepath.Join(p, name)
	}
	return p
}

func writeAndClose(file *os.File, write func(io.Writer) error) error {
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.WrapIO("close", file.Name(), err)
	}
	return nil
}
