package analysis

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/featurereg/pkg/classifier"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/reconciler"
)

// Result is the complete output of one analysis pass.
type Result struct {
	Orphans            []features.OrphanEntry            `json:"orphans" yaml:"orphans"`
	Duplicates         []features.OrphanDuplicate        `json:"duplicates" yaml:"duplicates"`
	RouteConflicts     []features.OrphanRouteConflict    `json:"routeConflicts" yaml:"route_conflicts"`
	PrefixedVariants   []features.PrefixedVariantCluster `json:"prefixedVariants" yaml:"prefixed_variants"`
	MigrationBatches   []features.MigrationBatch         `json:"migrationBatches" yaml:"migration_batches"`
	RegistryCandidates []RegistryCandidate               `json:"registryCandidates" yaml:"registry_candidates"`
	Stats              Stats                             `json:"stats" yaml:"stats"`
	Warnings           []string                          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Metadata           Metadata                          `json:"metadata" yaml:"metadata"`
}

// RegistryCandidate is an orphan proposed for promotion into the registry.
type RegistryCandidate struct {
	OrphanID    string                 `json:"orphanId" yaml:"orphan_id"`
	FeatureName string                 `json:"featureName" yaml:"feature_name"`
	Entry       features.RegistryEntry `json:"entry" yaml:"entry"`
}

// Metadata describes how a pass ran. It is the only part of a result that
// varies between passes over identical inputs.
type Metadata struct {
	AnalyzedAt utc.Time              `json:"analyzedAt" yaml:"analyzed_at"`
	Duration   time.Duration         `json:"duration" yaml:"duration"`
	Rules      []classifier.RuleName `json:"rules" yaml:"rules"`
}

// Stats aggregates counts over a pass. Every known source, recommendation
// and review status has a key, zero or not.
type Stats struct {
	TotalDBFeatures         int `json:"totalDbFeatures" yaml:"total_db_features"`
	RegistryFeatureCount    int `json:"registryFeatureCount" yaml:"registry_feature_count"`
	SyncedCount             int `json:"syncedCount" yaml:"synced_count"`
	OrphanCount             int `json:"orphanCount" yaml:"orphan_count"`
	ShadowedCount           int `json:"shadowedCount" yaml:"shadowed_count"`
	DuplicateClusters       int `json:"duplicateClusters" yaml:"duplicate_clusters"`
	RouteConflicts          int `json:"routeConflicts" yaml:"route_conflicts"`
	PrefixedVariantClusters int `json:"prefixedVariantClusters" yaml:"prefixed_variant_clusters"`
	MigrationBatches        int `json:"migrationBatches" yaml:"migration_batches"`
	RegistryCandidates      int `json:"registryCandidates" yaml:"registry_candidates"`

	BySource         map[features.Source]int         `json:"bySource" yaml:"by_source"`
	ByRecommendation map[features.Recommendation]int `json:"byRecommendation" yaml:"by_recommendation"`
	ByReviewStatus   map[features.ReviewStatus]int   `json:"byReviewStatus" yaml:"by_review_status"`
}

func computeStats(rr *reconciler.Result, r *Result) Stats {
	s := Stats{
		TotalDBFeatures:         rr.TotalDBFeatures,
		RegistryFeatureCount:    rr.RegistryFeatureCount,
		SyncedCount:             rr.SyncedCount,
		OrphanCount:             len(r.Orphans),
		ShadowedCount:           len(rr.Shadowed),
		DuplicateClusters:       len(r.Duplicates),
		RouteConflicts:          len(r.RouteConflicts),
		PrefixedVariantClusters: len(r.PrefixedVariants),
		MigrationBatches:        len(r.MigrationBatches),
		RegistryCandidates:      len(r.RegistryCandidates),
		BySource:                make(map[features.Source]int, len(features.Sources)),
		ByRecommendation:        make(map[features.Recommendation]int, len(features.Recommendations)),
		ByReviewStatus:          make(map[features.ReviewStatus]int, len(features.ReviewStatuses)),
	}
	for _, src := range features.Sources {
		s.BySource[src] = 0
	}
	for _, rec := range features.Recommendations {
		s.ByRecommendation[rec] = 0
	}
	for _, st := range features.ReviewStatuses {
		s.ByReviewStatus[st] = 0
	}
	for _, o := range r.Orphans {
		s.BySource[features.ParseSource(string(o.Source))]++
		s.ByRecommendation[o.Recommendation]++
		s.ByReviewStatus[o.Review.Status]++
	}
	return s
}

// Orphan returns the orphan with the given record ID.
func (r *Result) Orphan(id string) (features.OrphanEntry, bool) {
	for _, o := range r.Orphans {
		if o.ID == id {
			return o, true
		}
	}
	return features.OrphanEntry{}, false
}

// OrphansWhere returns the orphans matching keep, in result order.
func (r *Result) OrphansWhere(keep func(features.OrphanEntry) bool) []features.OrphanEntry {
	out := []features.OrphanEntry{}
	for _, o := range r.Orphans {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// Batch returns the migration batch whose bucket starts at ts.
func (r *Result) Batch(ts utc.Time) (features.MigrationBatch, bool) {
	for _, b := range r.MigrationBatches {
		if b.Timestamp.Equal(ts) {
			return b, true
		}
	}
	return features.MigrationBatch{}, false
}

// CandidateEntries returns the proposed registry entries.
func (r *Result) CandidateEntries() []features.RegistryEntry {
	out := make([]features.RegistryEntry, len(r.RegistryCandidates))
	for i, c := range r.RegistryCandidates {
		out[i] = c.Entry
	}
	return out
}
