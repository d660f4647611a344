// Package analyze provides the analyze command.
package analyze

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/featurereg/cmd/application"
	"github.com/agentstation/featurereg/internal/cmd/alerts"
	"github.com/agentstation/featurereg/internal/cmd/cmdutil"
	"github.com/agentstation/featurereg/internal/cmd/output"
	"github.com/agentstation/featurereg/internal/cmd/table"
	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/constants"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/logging"
)

// Sections accepted by --section.
const (
	SectionSummary    = "summary"
	SectionStats      = "stats"
	SectionOrphans    = "orphans"
	SectionDuplicates = "duplicates"
	SectionRoutes     = "routes"
	SectionVariants   = "variants"
	SectionBatches    = "batches"
	SectionCandidates = "candidates"
)

var sections = []string{
	SectionSummary, SectionStats, SectionOrphans, SectionDuplicates,
	SectionRoutes, SectionVariants, SectionBatches, SectionCandidates,
}

type options struct {
	section string
	filter  *cmdutil.FilterFlags
}

// NewCommand creates the analyze command.
func NewCommand(app application.Application) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:     "analyze",
		Aliases: []string{"analyse", "orphans"},
		GroupID: "core",
		Short:   "Find feature records missing from the registry",
		Long: `Analyze runs a full reconciliation pass: it loads the feature registry
and the stored feature records, reports every orphan with its
recommendation, and groups related orphans into clusters.

Sections:
  summary     statistics followed by the orphan list (default)
  stats       counts by source, recommendation and review status
  orphans     every orphan with its recommendation
  duplicates  orphans sharing a feature name
  routes      orphans sharing a route path
  variants    codes that differ only by a known prefix
  batches     records created together by a migration
  candidates  orphans worth promoting into the registry`,
		Example: `  # Summary of the current state
  featurereg analyze

  # Orphans recommended for deletion in the payroll module
  featurereg analyze --section orphans --recommendation delete --module payroll

  # Admin-only orphans by code
  featurereg analyze --section orphans --filter 'admin_*'

  # Registry entries to paste into the registry file
  featurereg analyze --section candidates -o yaml`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.section, "section", "s", SectionSummary,
		"Section to show: "+strings.Join(sections, ", "))
	opts.filter = cmdutil.AddFilterFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, app application.Application, opts *options) error {
	section := strings.ToLower(opts.section)
	if !slices.Contains(sections, section) {
		return errors.NewValidationError("section", opts.section, "must be one of: "+strings.Join(sections, ", "))
	}
	f, err := opts.filter.Parse()
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

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.AnalysisTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, app.Logger())

	res, err := client.Analyze(ctx)
	if err != nil {
		return err
	}
	app.Logger().Debug().
		Int("orphans", len(res.Orphans)).
		Dur("duration", res.Metadata.Duration).
		Msg("Analysis complete")

	w := cmd.OutOrStdout()
	if format.IsTable() {
		aw := alerts.NewWriter(cmd.ErrOrStderr(), format, app.UseColor())
		for _, warning := range res.Warnings {
			if err := aw.Write(alerts.Warning("%s", warning)); err != nil {
				return err
			}
		}
	}

	orphans := res.OrphansWhere(f.Keep)
	styler := cmdutil.Styler(app)

	switch section {
	case SectionStats:
		return output.Print(w, format, res.Stats, func(bool) table.Data { return table.Stats(res.Stats) })
	case SectionOrphans:
		return output.Print(w, format, orphans, func(wide bool) table.Data {
			return table.Orphans(orphans, wide, styler)
		})
	case SectionDuplicates:
		return output.Print(w, format, res.Duplicates, func(bool) table.Data { return table.Duplicates(res.Duplicates) })
	case SectionRoutes:
		return output.Print(w, format, res.RouteConflicts, func(bool) table.Data {
			return table.RouteConflicts(res.RouteConflicts)
		})
	case SectionVariants:
		return output.Print(w, format, res.PrefixedVariants, func(bool) table.Data {
			return table.Variants(res.PrefixedVariants)
		})
	case SectionBatches:
		return output.Print(w, format, res.MigrationBatches, func(bool) table.Data {
			return table.Batches(res.MigrationBatches)
		})
	case SectionCandidates:
		return printCandidates(w, format, res)
	default:
		return printSummary(w, format, res, orphans, styler)
	}
}

// printCandidates writes YAML in the registry file layout so the output can
// be appended to the registry as is.
func printCandidates(w io.Writer, format output.Format, res *analysis.Result) error {
	if format == output.FormatYAML {
		data, err := features.MarshalRegistry(res.CandidateEntries())
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return output.Print(w, format, res.RegistryCandidates, func(bool) table.Data {
		return table.Candidates(res.RegistryCandidates)
	})
}

func printSummary(w io.Writer, format output.Format, res *analysis.Result, orphans []features.OrphanEntry, styler table.Styler) error {
	if !format.IsTable() {
		summary := *res
		summary.Orphans = orphans
		return output.Print(w, format, summary, nil)
	}

	if _, err := fmt.Fprintf(w, "%s\n", output.Title(SectionStats)); err != nil {
		return err
	}
	if err := output.Print(w, format, nil, func(bool) table.Data { return table.Stats(res.Stats) }); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\n%s (%d)\n", output.Title(SectionOrphans), len(orphans)); err != nil {
		return err
	}
	return output.Print(w, format, nil, func(wide bool) table.Data {
		return table.Orphans(orphans, wide, styler)
	})
}
