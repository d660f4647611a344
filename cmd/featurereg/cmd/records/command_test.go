package records

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg/internal/cmd/application"
	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/features/featurestest"
)

const seed = `records:
  - id: r1
    feature_code: leave_export
    feature_name: Leave Export
    module_code: leave
  - feature_code: shift_swap
    feature_name: Shift Swap
    review:
      status: kept
      notes: planned
`

func execute(t *testing.T, m *application.Mock, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(m)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportFile(t *testing.T) {
	s := store.NewMemory()
	m := application.NewMock(nil, s)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	_, err := execute(t, m, "", "import", path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	r, err := s.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "leave", r.ModuleCode)
	assert.Equal(t, features.ReviewPending, r.Review.Status)
}

func TestImportStdinDryRun(t *testing.T) {
	s := store.NewMemory()
	m := application.NewMock(nil, s)

	_, err := execute(t, m, seed, "import", "-", "--dry-run")
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestImportRejectsDuplicates(t *testing.T) {
	s := store.NewMemory(featurestest.Record("leave_export", "Leave Export", featurestest.ID("r1")))
	m := application.NewMock(nil, s)

	_, err := execute(t, m, seed, "import", "-")
	assert.True(t, errors.IsAlreadyExists(err))
	assert.Equal(t, 1, s.Len())
}

func TestDumpRoundTrips(t *testing.T) {
	s := store.NewMemory(
		featurestest.Record("leave_export", "Leave Export", featurestest.ID("r1")),
		featurestest.Record("shift_swap", "Shift Swap", featurestest.ID("r2"), featurestest.Status(features.ReviewKept)),
	)
	m := application.NewMock(nil, s)

	out, err := execute(t, m, "", "dump")
	require.NoError(t, err)

	recs, err := store.ParseRecords(strings.NewReader(out), "dump", featurestest.Epoch)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
