package features

import (
	"github.com/agentstation/utc"
)

// ClusterRecommendation is the suggested resolution for a group of records.
type ClusterRecommendation string

// Cluster resolutions.
const (
	ClusterKeepBoth  ClusterRecommendation = "keep_both"
	ClusterMerge     ClusterRecommendation = "merge"
	ClusterRenameOne ClusterRecommendation = "rename_one"
	ClusterReview    ClusterRecommendation = "review"
)

// OrphanEntry is a persisted record whose code has no registry entry,
// annotated with the signals derived during one analysis pass. Only the
// embedded review block survives between passes.
type OrphanEntry struct {
	FeatureRecord `json:",inline" yaml:",inline"`

	HasDuplicate         bool           `json:"hasDuplicate" yaml:"has_duplicate"`
	DuplicateOf          []string       `json:"duplicateOf" yaml:"duplicate_of"`
	Recommendation       Recommendation `json:"recommendation" yaml:"recommendation"`
	RecommendationReason string         `json:"recommendationReason" yaml:"recommendation_reason"`
	Clusters             ClusterRefs    `json:"clusters" yaml:"clusters"`
}

// ClusterRefs points from an orphan to each cluster it belongs to.
type ClusterRefs struct {
	DuplicateName  string    `json:"duplicateName,omitempty" yaml:"duplicate_name,omitempty"`
	RouteConflict  string    `json:"routeConflict,omitempty" yaml:"route_conflict,omitempty"`
	VariantBase    string    `json:"variantBase,omitempty" yaml:"variant_base,omitempty"`
	MigrationBatch *utc.Time `json:"migrationBatch,omitempty" yaml:"migration_batch,omitempty"`
}

// InAnyCluster reports whether the orphan belongs to a duplicate, route, or
// prefix cluster. Migration batches do not count.
func (c ClusterRefs) InAnyCluster() bool {
	return c.DuplicateName != "" || c.RouteConflict != "" || c.VariantBase != ""
}

// Differences summarizes where the members of a cluster disagree. The value
// sets hold distinct non-empty values in sorted order.
type Differences struct {
	Modules                  []string `json:"modules" yaml:"modules"`
	RoutePatterns            []string `json:"routePatterns" yaml:"route_patterns"`
	Descriptions             []string `json:"descriptions" yaml:"descriptions"`
	HasDifferentModules      bool     `json:"hasDifferentModules" yaml:"has_different_modules"`
	HasDifferentRoutes       bool     `json:"hasDifferentRoutes" yaml:"has_different_routes"`
	HasDifferentDescriptions bool     `json:"hasDifferentDescriptions" yaml:"has_different_descriptions"`
}

// Identical reports whether the members agree on module, route and
// description.
func (d Differences) Identical() bool {
	return !d.HasDifferentModules && !d.HasDifferentRoutes && !d.HasDifferentDescriptions
}

// OrphanDuplicate groups orphans sharing a normalized feature name.
type OrphanDuplicate struct {
	FeatureName         string                `json:"featureName" yaml:"feature_name"`
	Entries             []OrphanEntry         `json:"entries" yaml:"entries"`
	SuggestedPrimary    string                `json:"suggestedPrimary" yaml:"suggested_primary"`
	Differences         Differences           `json:"differences" yaml:"differences"`
	MergeRecommendation string                `json:"mergeRecommendation" yaml:"merge_recommendation"`
	Recommendation      ClusterRecommendation `json:"recommendation" yaml:"recommendation"`
}

// OrphanRouteConflict groups orphans mapped to the same route path.
type OrphanRouteConflict struct {
	RoutePath      string        `json:"routePath" yaml:"route_path"`
	Entries        []OrphanEntry `json:"entries" yaml:"entries"`
	ConflictReason string        `json:"conflictReason" yaml:"conflict_reason"`
}

// PrefixedVariantCluster groups codes that differ only by a known prefix.
// RegistryCodes lists registered features sharing the base code.
type PrefixedVariantCluster struct {
	BaseCode            string                `json:"baseCode" yaml:"base_code"`
	Entries             []OrphanEntry         `json:"entries" yaml:"entries"`
	RegistryCodes       []string              `json:"registryCodes" yaml:"registry_codes"`
	SuggestedPrimary    string                `json:"suggestedPrimary" yaml:"suggested_primary"`
	Differences         Differences           `json:"differences" yaml:"differences"`
	MergeRecommendation string                `json:"mergeRecommendation" yaml:"merge_recommendation"`
	Recommendation      ClusterRecommendation `json:"recommendation" yaml:"recommendation"`
}

// Codes returns every member code, orphans first.
func (c *PrefixedVariantCluster) Codes() []string {
	codes := make([]string, 0, len(c.Entries)+len(c.RegistryCodes))
	for _, e := range c.Entries {
		codes = append(codes, e.FeatureCode)
	}
	return append(codes, c.RegistryCodes...)
}

// MigrationBatch is a set of orphans created within one time bucket.
type MigrationBatch struct {
	Timestamp utc.Time `json:"timestamp" yaml:"timestamp"`
	Count     int      `json:"count" yaml:"count"`
	Codes     []string `json:"codes" yaml:"codes"`
	IDs       []string `json:"ids" yaml:"ids"`
}

// OrphanFromRecord wraps a record with empty derived fields.
func OrphanFromRecord(r FeatureRecord) OrphanEntry {
	if r.Review.Status == "" {
		r.Review.Status = ReviewPending
	}
	return OrphanEntry{FeatureRecord: r, DuplicateOf: []string{}}
}
