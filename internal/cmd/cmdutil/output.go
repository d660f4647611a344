package cmdutil

import (
	"github.com/agentstation/featurereg/cmd/application"
	"github.com/agentstation/featurereg/internal/cmd/output"
	"github.com/agentstation/featurereg/internal/cmd/table"
)

// Format resolves the output format: the configured value when set, a
// table on terminals and JSON otherwise.
func Format(app application.Application) (output.Format, error) {
	f, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return "", err
	}
	return output.DetectFormat(string(f)), nil
}

// Styler returns the table styler for app's color setting.
func Styler(app application.Application) table.Styler {
	return table.Styler{Color: app.UseColor()}
}
