package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
	ft "github.com/agentstation/featurereg/pkg/features/featurestest"
)

type recordList struct {
	records []features.FeatureRecord
	err     error
}

func (l recordList) List(context.Context) ([]features.FeatureRecord, error) {
	return l.records, l.err
}

type failingRegistry struct{ err error }

func (f failingRegistry) Entries(context.Context) ([]features.RegistryEntry, error) {
	return nil, f.err
}

func newAnalyzer(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()
	a, err := New(opts...)
	require.NoError(t, err)
	return a
}

func orphanByCode(t *testing.T, r *Result, code string) features.OrphanEntry {
	t.Helper()
	for _, o := range r.Orphans {
		if o.FeatureCode == code {
			return o
		}
	}
	t.Fatalf("no orphan with code %s", code)
	return features.OrphanEntry{}
}

func TestPrefixedVariantsOfRegisteredFeature(t *testing.T) {
	registry := []features.RegistryEntry{
		{FeatureCode: "ess_leave", ModuleCode: "leave", RoutePath: "/ess/leave", Description: "Leave requests"},
	}
	records := []features.FeatureRecord{
		ft.Record("ess_leave", "Leave", ft.Complete("leave", "/ess/leave", "Leave requests")),
		ft.Record("admin_leave", "Leave", ft.Complete("leave", "/admin/leave", "Leave requests")),
		ft.Record("mss_leave", "Leave", ft.Complete("leave", "/mss/leave", "Leave requests")),
	}

	r := newAnalyzer(t).Run(registry, records)

	require.Len(t, r.PrefixedVariants, 1)
	v := r.PrefixedVariants[0]
	assert.Equal(t, "leave", v.BaseCode)
	assert.Equal(t, "ess_leave", v.SuggestedPrimary)
	assert.Len(t, v.Entries, 2)

	for _, code := range []string{"admin_leave", "mss_leave"} {
		o := orphanByCode(t, r, code)
		assert.True(t, o.HasDuplicate, code)
		assert.Contains(t, o.DuplicateOf, "ess_leave")
		assert.Equal(t, "leave", o.Clusters.VariantBase)
		assert.Equal(t, features.RecommendReview, o.Recommendation, code)
	}
	assert.Empty(t, r.RegistryCandidates)
	assert.Equal(t, 1, r.Stats.SyncedCount)
}

func TestIdenticalDuplicatesMerge(t *testing.T) {
	records := []features.FeatureRecord{
		ft.Record("onboarding_v2", "Onboarding", ft.Complete("hr", "/onboarding", "Onboard new hires"), ft.CreatedAfter(24*time.Hour)),
		ft.Record("hr_onboard", "Onboarding", ft.Complete("hr", "/onboarding", "Onboard new hires")),
	}

	r := newAnalyzer(t).Run(nil, records)

	require.Len(t, r.Duplicates, 1)
	d := r.Duplicates[0]
	assert.Equal(t, features.ClusterMerge, d.Recommendation)
	assert.Equal(t, "hr_onboard", d.SuggestedPrimary)
	require.Len(t, r.RouteConflicts, 1)

	for _, o := range r.Orphans {
		assert.Equal(t, features.RecommendMerge, o.Recommendation, o.FeatureCode)
		assert.Contains(t, o.RecommendationReason, "hr_onboard")
	}
	for _, e := range d.Entries {
		assert.Equal(t, features.RecommendMerge, e.Recommendation, "cluster entries carry final classification")
	}
	assert.Equal(t, 2, r.Stats.ByRecommendation[features.RecommendMerge])
}

func TestMigrationBatchArchived(t *testing.T) {
	var records []features.FeatureRecord
	for i := 0; i < 15; i++ {
		code := fmt.Sprintf("legacy_feature_%02d", i)
		records = append(records, ft.Record(code, fmt.Sprintf("Legacy feature %d", i),
			ft.Complete("legacy", "/legacy/"+code, "Imported from the old HRIS"),
			ft.Source(features.SourceAutoMigration),
			ft.CreatedAt(ft.Epoch.Add(time.Duration(i)*time.Millisecond)),
		))
	}

	r := newAnalyzer(t).Run(nil, records)

	require.Len(t, r.MigrationBatches, 1)
	assert.Equal(t, 15, r.MigrationBatches[0].Count)
	assert.Empty(t, r.RouteConflicts)
	assert.Empty(t, r.Duplicates)
	for _, o := range r.Orphans {
		assert.Equal(t, features.RecommendArchive, o.Recommendation, o.FeatureCode)
		require.NotNil(t, o.Clusters.MigrationBatch)
	}
	assert.Empty(t, r.RegistryCandidates, "archived records are not candidates")
	assert.Equal(t, 15, r.Stats.BySource[features.SourceAutoMigration])
}

func TestIncompleteManualEntryDeleted(t *testing.T) {
	r := newAnalyzer(t).Run(nil, []features.FeatureRecord{ft.Record("draft_widget", "Draft widget")})

	require.Len(t, r.Orphans, 1)
	o := r.Orphans[0]
	assert.Equal(t, features.RecommendDelete, o.Recommendation)
	assert.Equal(t, "No route or description; appears incomplete/abandoned.", o.RecommendationReason)
	assert.False(t, o.HasDuplicate)
	assert.Empty(t, o.DuplicateOf)
}

func TestRegistryCandidates(t *testing.T) {
	records := []features.FeatureRecord{
		ft.Record("benefits_enroll", "Benefits enrollment", ft.Complete("benefits", "/benefits/enroll", "Open enrollment")),
		ft.Record("report_a", "Report A", ft.Complete("reports", "/reports", "A")),
		ft.Record("report_b", "Report B", ft.Complete("reports", "/reports", "B")),
	}

	r := newAnalyzer(t).Run(nil, records)

	require.Len(t, r.RegistryCandidates, 1)
	c := r.RegistryCandidates[0]
	assert.Equal(t, "id-benefits_enroll", c.OrphanID)
	assert.Equal(t, features.RegistryEntry{
		FeatureCode: "benefits_enroll",
		ModuleCode:  "benefits",
		RoutePath:   "/benefits/enroll",
		Description: "Open enrollment",
	}, c.Entry)
	assert.Equal(t, []features.RegistryEntry{c.Entry}, r.CandidateEntries())

	for _, code := range []string{"report_a", "report_b"} {
		assert.Equal(t, features.RecommendReview, orphanByCode(t, r, code).Recommendation)
	}
}

func TestStatsCoverEveryKey(t *testing.T) {
	r := newAnalyzer(t).Run(ft.Registry("synced"), []features.FeatureRecord{
		ft.Record("synced", "Synced"),
		ft.Record("kept_one", "Kept", ft.Status(features.ReviewKept)),
		ft.Record("odd_source", "Odd", ft.Source("spreadsheet")),
	})

	s := r.Stats
	assert.Equal(t, 3, s.TotalDBFeatures)
	assert.Equal(t, 1, s.RegistryFeatureCount)
	assert.Equal(t, 1, s.SyncedCount)
	assert.Equal(t, 2, s.OrphanCount)
	assert.Len(t, s.BySource, len(features.Sources))
	assert.Len(t, s.ByRecommendation, len(features.Recommendations))
	assert.Len(t, s.ByReviewStatus, len(features.ReviewStatuses))
	assert.Equal(t, 1, s.BySource[features.SourceUnknown])
	assert.Equal(t, 1, s.ByReviewStatus[features.ReviewKept])
	assert.Equal(t, 1, s.ByReviewStatus[features.ReviewPending])
	assert.Equal(t, 0, s.ByRecommendation[features.RecommendArchive])
}

func mixedRecords() []features.FeatureRecord {
	records := []features.FeatureRecord{
		ft.Record("ess_leave", "Leave", ft.Complete("leave", "/ess/leave", "Leave")),
		ft.Record("admin_leave", "Leave", ft.Complete("leave", "/admin/leave", "Leave"), ft.CreatedAfter(time.Hour)),
		ft.Record("mss_leave", "Leave", ft.Route("/mss/leave"), ft.CreatedAfter(2*time.Hour)),
		ft.Record("hr_onboard", "Onboarding", ft.Complete("hr", "/onboarding", "Onboard")),
		ft.Record("onboarding_v2", "onboarding", ft.Complete("hr", "/onboarding", "Onboard"), ft.CreatedAfter(time.Minute)),
		ft.Record("draft", "Draft"),
		ft.Record("benefits", "Benefits", ft.Complete("benefits", "/benefits", "Benefits")),
	}
	for i := 0; i < 12; i++ {
		code := fmt.Sprintf("mig_%02d", i)
		records = append(records, ft.Record(code, code, ft.Description("migrated"),
			ft.Source(features.SourceAutoMigration), ft.CreatedAfter(72*time.Hour)))
	}
	return records
}

func TestAnalysisIsDeterministic(t *testing.T) {
	a := newAnalyzer(t, WithClock(func() time.Time { return ft.Epoch }))
	registry := ft.Registry("payroll")
	records := mixedRecords()

	first, err := json.Marshal(a.Run(registry, records))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		shuffled := append([]features.FeatureRecord(nil), records...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		again, err := json.Marshal(a.Run(registry, shuffled))
		require.NoError(t, err)
		assert.JSONEq(t, string(first), string(again))
	}
}

func TestEveryOrphanGetsExactlyOneRecommendation(t *testing.T) {
	r := newAnalyzer(t).Run(nil, mixedRecords())

	total := 0
	for _, n := range r.Stats.ByRecommendation {
		total += n
	}
	assert.Equal(t, len(r.Orphans), total)
	for _, o := range r.Orphans {
		assert.NotEmpty(t, o.Recommendation, o.FeatureCode)
		assert.NotEmpty(t, o.RecommendationReason, o.FeatureCode)
	}
}

func TestAnalyzeFetchesInputs(t *testing.T) {
	a := newAnalyzer(t)
	ctx := context.Background()

	r, err := a.Analyze(ctx, features.StaticRegistry(ft.Registry("payroll")), recordList{records: mixedRecords()})
	require.NoError(t, err)
	assert.NotEmpty(t, r.Orphans)

	_, err = a.Analyze(ctx, failingRegistry{err: errors.New("bad yaml")}, recordList{})
	var fe *pkgerrors.DataFetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "registry", fe.Source)

	_, err = a.Analyze(ctx, features.StaticRegistry(nil), recordList{err: errors.New("connection refused")})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "store", fe.Source)
	assert.True(t, pkgerrors.IsFetchError(err))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchThreshold = 0
	_, err := New(WithConfig(cfg))
	var ce *pkgerrors.ConfigError
	assert.ErrorAs(t, err, &ce)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestBatchThresholdIsConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchThreshold = 20
	r := newAnalyzer(t, WithConfig(cfg)).Run(nil, mixedRecords())
	assert.Empty(t, r.MigrationBatches)
	assert.Zero(t, r.Stats.ByRecommendation[features.RecommendArchive])
}

func TestCustomPrefixesWithDefaultRanking(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prefixes = []string{"hr_", "legacy_"}

	records := []features.FeatureRecord{
		ft.Record("hr_payslip", "Payslip"),
		ft.Record("legacy_payslip", "Old Payslip"),
	}
	r := newAnalyzer(t, WithConfig(cfg)).Run(nil, records)

	require.Len(t, r.PrefixedVariants, 1)
	assert.Equal(t, "payslip", r.PrefixedVariants[0].BaseCode)
}
