// Package review provides the review command.
package review

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/spf13/cobra"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/cmd/application"
	"github.com/agentstation/featurereg/internal/cmd/alerts"
	"github.com/agentstation/featurereg/internal/cmd/cmdutil"
	"github.com/agentstation/featurereg/internal/cmd/output"
	"github.com/agentstation/featurereg/internal/cmd/table"
	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/constants"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/logging"
)

type options struct {
	batch    string
	notes    string
	confirm  string
	reviewer string
	dryRun   bool
	filter   *cmdutil.FilterFlags
}

// NewCommand creates the review command.
func NewCommand(app application.Application) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:     "review <archive|delete|keep|undo-keep> [id...]",
		GroupID: "core",
		Short:   "Archive, delete or keep orphaned feature records",
		Long: `Review applies a reviewer decision to one or more orphans.

  archive    hide the record from the console, keeping its history
  delete     remove the record permanently
  keep       accept the record as planned work, with optional notes
  undo-keep  return a kept record to pending review

Records are selected by ID, by --batch (every record in a migration
batch) or by the filter flags. Selections combine. Each record is
applied independently, so one failure does not stop the others.

Deleting more records than the configured threshold needs --confirm with
the token printed in the error, for example --confirm "DELETE 25".`,
		Example: `  # Archive two records
  featurereg review archive 7f1c 9a2e

  # Keep a record with a note
  featurereg review keep 7f1c --notes "planned for Q3"

  # Delete a whole migration batch
  featurereg review delete --batch 2024-03-01T10:15:00Z --confirm "DELETE 40"

  # Preview which records a filter selects
  featurereg review archive --recommendation archive --module payroll --dry-run`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		ValidArgs: []string{
			string(actions.ActionArchive), string(actions.ActionDelete),
			string(actions.ActionKeep), "undo-keep",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.batch, "batch", "",
		"Select every record in the migration batch with this RFC 3339 timestamp")
	cmd.Flags().StringVar(&opts.notes, "notes", "",
		"Reviewer notes stored with keep")
	cmd.Flags().StringVar(&opts.confirm, "confirm", "",
		"Confirmation token for large deletes, e.g. \"DELETE 25\"")
	cmd.Flags().StringVar(&opts.reviewer, "reviewer", "",
		"Reviewer identity recorded on each record (default from config, then $USER)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false,
		"Print the selected records without changing them")
	opts.filter = cmdutil.AddFilterFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, app application.Application, opts *options, args []string) error {
	action, err := actions.ParseAction(args[0])
	if err != nil {
		return err
	}
	format, err := cmdutil.Format(app)
	if err != nil {
		return err
	}
	client, err := app.Client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.BulkActionTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, app.Logger())
	if reviewer := reviewerFor(opts, client); reviewer != "" {
		ctx = actions.WithReviewer(ctx, reviewer)
	}

	ids, err := selectIDs(ctx, client, opts, args[1:])
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.NewValidationError("ids", "", "no records selected")
	}
	if len(ids) > constants.MaxBulkItems {
		return errors.NewValidationError("ids", len(ids),
			fmt.Sprintf("at most %d records can be reviewed at once", constants.MaxBulkItems))
	}

	w := cmd.OutOrStdout()
	if opts.dryRun {
		return output.Print(w, format, map[string]any{"action": action, "ids": ids}, func(bool) table.Data {
			rows := make([][]string, len(ids))
			for i, id := range ids {
				rows[i] = []string{id, string(action)}
			}
			return table.Data{Headers: []string{"ID", "Would Apply"}, Rows: rows}
		})
	}

	aw := alerts.NewWriter(cmd.ErrOrStderr(), format, app.UseColor())

	// A single explicit ID gets the plain error of that one item.
	if len(ids) == 1 && !selecting(opts) {
		if err := client.Apply(ctx, action, ids[0], opts.notes); err != nil {
			return err
		}
		return aw.Write(alerts.Success("Applied %s to %s", action, ids[0]))
	}

	res, err := client.ApplyMany(ctx, action, ids, opts.notes, opts.confirm)
	if err != nil {
		return err
	}
	if err := output.Print(w, format, res, func(bool) table.Data {
		return table.Bulk(res, cmdutil.Styler(app))
	}); err != nil {
		return err
	}

	failed, skipped := len(res.Failed()), len(res.Skipped())
	app.Logger().Info().
		Str("action", string(action)).
		Int("succeeded", len(res.Succeeded())).
		Int("failed", failed).
		Int("skipped", skipped).
		Msg("Bulk review applied")

	if failed+skipped > 0 {
		warn := alerts.Warning("%d of %d records were not changed", failed+skipped, len(res.Items))
		if err := aw.Write(warn.WithError(res.Err())); err != nil {
			return err
		}
		return fmt.Errorf("bulk %s incomplete: %d failed, %d skipped", action, failed, skipped)
	}
	return aw.Write(alerts.Success("Applied %s to %d records", action, len(res.Items)))
}

func selecting(opts *options) bool {
	return opts.batch != "" || opts.filter.IsSet()
}

// selectIDs merges explicit IDs with those selected by --batch and the
// filter flags, in that order and without duplicates.
func selectIDs(ctx context.Context, client featurereg.Client, opts *options, explicit []string) ([]string, error) {
	ids := slices.Clone(explicit)
	if !selecting(opts) {
		return compact(ids), nil
	}

	f, err := opts.filter.Parse()
	if err != nil {
		return nil, err
	}
	var batchTS utc.Time
	if opts.batch != "" {
		if batchTS, err = utc.Parse(time.RFC3339, opts.batch); err != nil {
			return nil, errors.NewValidationError("batch", opts.batch, "must be an RFC 3339 timestamp")
		}
	}

	res, err := client.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	if opts.batch != "" {
		batch, ok := res.Batch(batchTS)
		if !ok {
			return nil, errors.NewNotFoundError("migration batch", opts.batch)
		}
		for _, id := range batch.IDs {
			if o, ok := res.Orphan(id); ok && f.Keep(o) {
				ids = append(ids, id)
			}
		}
	} else {
		ids = append(ids, f.IDs(res.Orphans)...)
	}
	return compact(ids), nil
}

func compact(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func reviewerFor(opts *options, client featurereg.Client) string {
	if opts.reviewer != "" {
		return opts.reviewer
	}
	if client.ActionConfig().DefaultReviewer != "" {
		return ""
	}
	return os.Getenv("USER")
}
