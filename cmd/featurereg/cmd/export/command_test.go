package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/internal/cmd/application"
	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/features/featurestest"
)

func newMock(t *testing.T) *application.Mock {
	t.Helper()
	s := store.NewMemory(
		featurestest.Record("payroll_run", "Payroll Run", featurestest.ID("r0")),
		featurestest.Record("leave_export", "=HYPERLINK(\"x\")", featurestest.ID("r1"), featurestest.Module("leave")),
		featurestest.Record("shift_swap", "Shift Swap", featurestest.ID("r2"), featurestest.Module("rostering")),
	)
	client, err := featurereg.New(
		featurereg.WithRegistry(features.StaticRegistry(featurestest.Registry("payroll_run"))),
		featurereg.WithStore(s),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return application.NewMock(client, s)
}

func execute(t *testing.T, m *application.Mock, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(m)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportStdout(t *testing.T) {
	out, err := execute(t, newMock(t), "--module", "rostering")
	require.NoError(t, err)

	rows := readCSV(t, out)
	require.Len(t, rows, 2, "header plus one orphan")
	assert.Contains(t, rows[1], "shift_swap")
}

func TestExportEscapesFormulas(t *testing.T) {
	out, err := execute(t, newMock(t), "--module", "leave")
	require.NoError(t, err)
	assert.Contains(t, out, "=HYPERLINK")

	out, err = execute(t, newMock(t), "--module", "leave", "--escape")
	require.NoError(t, err)
	assert.NotContains(t, readCSV(t, out)[1], "=HYPERLINK(\"x\")")
}

func TestExportToDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, newMock(t), "--output", dir+string(os.PathSeparator))
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "orphans-*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Len(t, readCSV(t, string(data)), 3)
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, filepath.Join(dir, "orphans-20240304-093000.csv"), resolvePath(dir, now))
	assert.Equal(t, filepath.Join(dir, "out.csv"), resolvePath(filepath.Join(dir, "out.csv"), now))
}
