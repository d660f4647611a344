package featurereg_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
	ft "github.com/agentstation/featurereg/pkg/features/featurestest"
)

func newClient(t *testing.T, st featurereg.Store, opts ...featurereg.Option) featurereg.Client {
	t.Helper()
	registry := features.StaticRegistry{
		{FeatureCode: "ess_leave", ModuleCode: "leave", RoutePath: "/ess/leave", Description: "Leave"},
	}
	opts = append([]featurereg.Option{
		featurereg.WithRegistry(registry),
		featurereg.WithStore(st),
		featurereg.WithClock(func() time.Time { return ft.Epoch.Add(48 * time.Hour) }),
		featurereg.WithActionConfig(actions.Config{Concurrency: 2, ConfirmThreshold: 10, DefaultReviewer: "ops"}),
	}, opts...)
	c, err := featurereg.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seedStore() *store.Memory {
	return store.NewMemory(
		ft.Record("ess_leave", "Leave", ft.Complete("leave", "/ess/leave", "Leave")),
		ft.Record("admin_leave", "Leave", ft.Complete("leave", "/admin/leave", "Leave")),
		ft.Record("mss_leave", "Leave", ft.Complete("leave", "/mss/leave", "Leave")),
		ft.Record("scratch", "Scratch"),
	)
}

func TestAnalyzeFiresFoundHooks(t *testing.T) {
	c := newClient(t, seedStore())

	var found []string
	var analyzed int
	c.OnOrphanFound(func(o features.OrphanEntry) { found = append(found, o.FeatureCode) })
	c.OnAnalyzed(func(*analysis.Result) { analyzed++ })

	_, ok := c.Last()
	assert.False(t, ok)

	res, err := c.Analyze(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admin_leave", "mss_leave", "scratch"}, found)
	assert.Equal(t, 1, analyzed)

	last, ok := c.Last()
	require.True(t, ok)
	assert.Same(t, res, last)

	// a second identical pass reports nothing new
	found = nil
	_, err = c.Analyze(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, 2, analyzed)
}

func TestDeleteResolvesOrphanAndRefreshes(t *testing.T) {
	st := seedStore()
	c := newClient(t, st)
	ctx := actions.WithReviewer(context.Background(), "dana")

	_, err := c.Analyze(ctx)
	require.NoError(t, err)

	var resolved []string
	var reviewed []actions.ItemResult
	c.OnOrphanResolved(func(o features.OrphanEntry) { resolved = append(resolved, o.FeatureCode) })
	c.OnReviewed(func(_ context.Context, item actions.ItemResult) { reviewed = append(reviewed, item) })

	require.NoError(t, c.Delete(ctx, "id-scratch"))

	assert.Equal(t, []string{"scratch"}, resolved)
	require.Len(t, reviewed, 1)
	assert.Equal(t, actions.OutcomeSucceeded, reviewed[0].Outcome)

	last, _ := c.Last()
	_, stillThere := last.Orphan("id-scratch")
	assert.False(t, stillThere, "last analysis reflects the delete")
}

func TestBulkArchiveRefreshesAnalysis(t *testing.T) {
	c := newClient(t, seedStore())
	ctx := context.Background()

	res, err := c.ArchiveMany(ctx, []string{"id-admin_leave", "id-mss_leave", "id-missing"})
	require.NoError(t, err)
	assert.Len(t, res.Succeeded(), 2)
	require.Len(t, res.Failed(), 1)
	assert.True(t, errors.IsNotFound(res.Failed()[0].Err))

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, 2, last.Stats.ByReviewStatus[features.ReviewArchived])
	assert.Equal(t, 1, last.Stats.ByReviewStatus[features.ReviewPending])
}

func TestRegisteredRecordsCannotBeReviewed(t *testing.T) {
	st := seedStore()
	c := newClient(t, st)
	ctx := context.Background()

	err := c.Delete(ctx, "id-ess_leave")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.True(t, errors.IsMutationError(err))

	res, err := c.MarkManyKept(ctx, []string{"id-ess_leave", "id-scratch"}, "")
	require.NoError(t, err)
	assert.Len(t, res.Succeeded(), 1)
	require.Len(t, res.Failed(), 1)
	assert.Equal(t, "id-ess_leave", res.Failed()[0].ID)

	got, err := st.Get(ctx, "id-ess_leave")
	require.NoError(t, err)
	assert.Equal(t, features.ReviewPending, got.Review.Status)
}

func TestRejectedBulkSkipsRefresh(t *testing.T) {
	c := newClient(t, seedStore())

	_, err := c.ArchiveMany(context.Background(), nil)
	assert.True(t, errors.IsValidationError(err))

	_, ok := c.Last()
	assert.False(t, ok)
}

func TestExportCSV(t *testing.T) {
	c := newClient(t, seedStore())

	var buf bytes.Buffer
	err := c.ExportCSV(context.Background(), &buf, func(o features.OrphanEntry) bool {
		return strings.HasSuffix(o.FeatureCode, "_leave")
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "featureCode,"))
	assert.True(t, strings.HasPrefix(lines[1], "admin_leave,Leave,leave,/admin/leave,manual_entry,"))
}

func TestDefaultsUseEmbeddedRegistry(t *testing.T) {
	c, err := featurereg.New()
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	entries, err := c.Registry().Entries(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	res, err := c.Analyze(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Orphans)
}

func TestInvalidOptions(t *testing.T) {
	_, err := featurereg.New(featurereg.WithAutoRefresh(0))
	assert.True(t, errors.IsValidationError(err))

	_, err = featurereg.New(featurereg.WithStore(nil))
	assert.Error(t, err)
}

func TestAutoRefresh(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	passes := 0
	c, err := featurereg.New(
		featurereg.WithStore(seedStore()),
		featurereg.WithAutoRefresh(10*time.Millisecond),
	)
	require.NoError(t, err)
	c.OnAnalyzed(func(*analysis.Result) {
		mu.Lock()
		passes++
		mu.Unlock()
	})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return passes >= 2
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	// let the loop observe the stop channel before leak checking
	time.Sleep(20 * time.Millisecond)
}
