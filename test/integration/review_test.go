package integration

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/internal/embedded"
	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/export"
	"github.com/agentstation/featurereg/pkg/features"
)

const seed = `records:
  - id: r1
    feature_code: ess_leave
    feature_name: Leave
    source: registry
  - id: r2
    feature_code: old_timesheet
    feature_name: Timesheet
    source: auto_migration
  - id: r3
    feature_code: custom_bonus
    feature_name: Bonus Calculator
    module_code: payroll
    route_path: /admin/bonus
    description: Quarterly bonus tool
    source: manual_entry
`

func openStore(t *testing.T, path string) store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{Driver: store.DriverSQLite, DSN: path})
	require.NoError(t, err)
	return s
}

func newClient(t *testing.T, s store.Store) featurereg.Client {
	t.Helper()
	client, err := featurereg.New(
		featurereg.WithRegistry(embedded.Registry{}),
		featurereg.WithStore(s),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestReviewSurvivesRestart(t *testing.T) {
	ctx := actions.WithReviewer(context.Background(), "integration")
	path := filepath.Join(t.TempDir(), "features.db")

	s := openStore(t, path)
	records, err := store.ParseRecords(strings.NewReader(seed), "seed.yaml", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Import(ctx, s, records))

	client := newClient(t, s)
	res, err := client.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.TotalDBFeatures)
	assert.Equal(t, 2, res.Stats.OrphanCount)

	require.NoError(t, client.MarkKept(ctx, "r3", "owned by payroll team"))
	bulk, err := client.ArchiveMany(ctx, []string{"r2", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, bulk.Succeeded())
	assert.Len(t, bulk.Failed(), 1)
	require.NoError(t, client.Close())
	require.NoError(t, s.Close())

	reopened := openStore(t, path)
	defer func() { _ = reopened.Close() }()

	kept, err := reopened.Get(ctx, "r3")
	require.NoError(t, err)
	assert.Equal(t, features.ReviewKept, kept.Review.Status)
	assert.Equal(t, "integration", kept.Review.ReviewedBy)

	archived, err := reopened.Get(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, features.ReviewArchived, archived.Review.Status)

	// A kept orphan cannot be archived until it is returned to pending.
	client = newClient(t, reopened)
	err = client.Archive(ctx, "r3")
	assert.True(t, errors.IsInvalidTransition(err))
	require.NoError(t, client.UndoKeep(ctx, "r3"))
	require.NoError(t, client.Archive(ctx, "r3"))
}

func TestExportAfterImport(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "features.db"))
	defer func() { _ = s.Close() }()

	records, err := store.ParseRecords(strings.NewReader(seed), "seed.yaml", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Import(ctx, s, records))

	client := newClient(t, s)
	var buf bytes.Buffer
	require.NoError(t, client.ExportCSV(ctx, &buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, export.Columns, rows[0])
}
