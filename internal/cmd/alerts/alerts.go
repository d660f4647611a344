// Package alerts reports command outcomes on stderr, apart from the data a
// command prints on stdout.
package alerts

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"

	"github.com/agentstation/featurereg/internal/cmd/emoji"
	"github.com/agentstation/featurereg/internal/cmd/output"
)

// Level is the kind of outcome being reported.
type Level string

// Levels.
const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

var levelStyle = map[Level]struct {
	icon  string
	color color.Attribute
}{
	LevelSuccess: {emoji.Success, color.FgGreen},
	LevelInfo:    {emoji.Info, color.FgCyan},
	LevelWarning: {emoji.Warning, color.FgYellow},
}

// Alert is one outcome line, optionally with the error behind it.
type Alert struct {
	Level   Level  `json:"level" yaml:"level"`
	Message string `json:"message" yaml:"message"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newf(level Level, format string, args ...any) *Alert {
	return &Alert{Level: level, Message: fmt.Sprintf(format, args...)}
}

// Success reports a completed operation.
func Success(format string, args ...any) *Alert { return newf(LevelSuccess, format, args...) }

// Info reports something that changed nothing.
func Info(format string, args ...any) *Alert { return newf(LevelInfo, format, args...) }

// Warning reports a partial or suspicious outcome.
func Warning(format string, args ...any) *Alert { return newf(LevelWarning, format, args...) }

// WithError attaches the cause. A nil err leaves the alert unchanged.
func (a *Alert) WithError(err error) *Alert {
	if err != nil {
		a.Error = err.Error()
	}
	return a
}

// String renders the alert as a single line.
func (a *Alert) String() string {
	icon := emoji.Unknown
	if s, ok := levelStyle[a.Level]; ok {
		icon = s.icon
	}
	if a.Error != "" {
		return fmt.Sprintf("%s %s: %s", icon, a.Message, a.Error)
	}
	return icon + " " + a.Message
}

// Writer renders alerts in the command's output format.
type Writer struct {
	w        io.Writer
	format   output.Format
	useColor bool
}

// NewWriter creates a Writer. JSON and YAML emit one document per alert.
func NewWriter(w io.Writer, format output.Format, useColor bool) *Writer {
	return &Writer{w: w, format: format, useColor: useColor}
}

// Write renders a.
func (w *Writer) Write(a *Alert) error {
	switch w.format {
	case output.FormatJSON:
		return json.NewEncoder(w.w).Encode(a)
	case output.FormatYAML:
		out, err := yaml.Marshal(a)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w.w, "---\n%s", out)
		return err
	}

	line := a.String()
	if s, ok := levelStyle[a.Level]; ok && w.useColor {
		c := color.New(s.color)
		c.EnableColor()
		line = c.Sprint(line)
	}
	_, err := fmt.Fprintln(w.w, line)
	return err
}
