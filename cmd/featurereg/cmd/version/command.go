// Package version provides the version command.
package version

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/featurereg/cmd/application"
	"github.com/agentstation/featurereg/internal/cmd/cmdutil"
	"github.com/agentstation/featurereg/internal/cmd/output"
	"github.com/agentstation/featurereg/internal/cmd/table"
)

// Info is the build information shown by the command.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	BuiltBy   string `json:"builtBy" yaml:"built_by"`
	GoVersion string `json:"goVersion" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// NewCommand creates the version command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:          "version",
		Short:        "Show version information",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := Info{
				Version:   app.Version(),
				Commit:    app.Commit(),
				Date:      app.Date(),
				BuiltBy:   app.BuiltBy(),
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			format, err := cmdutil.Format(app)
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), format, info, func(bool) table.Data {
				return table.Data{
					Headers: []string{"Field", "Value"},
					Rows: [][]string{
						{"version", info.Version},
						{"commit", info.Commit},
						{"built", info.Date},
						{"built by", info.BuiltBy},
						{"go version", info.GoVersion},
						{"platform", info.Platform},
					},
				}
			})
		},
	}
}
