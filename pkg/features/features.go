// Package features defines the data model shared by the reconciliation
// pipeline: the code-declared registry, the persisted feature records, and
// the review lifecycle attached to records that have no registry entry.
package features

import (
	"strings"

	"github.com/agentstation/utc"
)

// Source records how a feature row entered the database.
type Source string

// Known record sources.
const (
	SourceAutoMigration Source = "auto_migration"
	SourceManualEntry   Source = "manual_entry"
	SourceRegistry      Source = "registry"
	SourceUnknown       Source = "unknown"
)

// Sources lists every known source in display order.
var Sources = []Source{SourceAutoMigration, SourceManualEntry, SourceRegistry, SourceUnknown}

// ParseSource maps a stored value to a Source. Unrecognized values become
// SourceUnknown.
func ParseSource(s string) Source {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceAutoMigration:
		return SourceAutoMigration
	case SourceManualEntry:
		return SourceManualEntry
	case SourceRegistry:
		return SourceRegistry
	default:
		return SourceUnknown
	}
}

// String returns the string representation of a Source.
func (s Source) String() string {
	return string(s)
}

// Recommendation is the suggested disposition for an orphaned record.
type Recommendation string

// Recommendations produced by the classifier.
const (
	RecommendKeepAsPlanned Recommendation = "keep_as_planned"
	RecommendArchive       Recommendation = "archive"
	RecommendDelete        Recommendation = "delete"
	RecommendMerge         Recommendation = "merge"
	RecommendReview        Recommendation = "review"
)

// Recommendations lists every recommendation in display order.
var Recommendations = []Recommendation{
	RecommendKeepAsPlanned,
	RecommendArchive,
	RecommendDelete,
	RecommendMerge,
	RecommendReview,
}

// String returns the string representation of a Recommendation.
func (r Recommendation) String() string {
	return string(r)
}

// RegistryEntry is a feature declared in code. The registry is the source of
// truth for which features the application actually serves.
type RegistryEntry struct {
	FeatureCode string `json:"featureCode" yaml:"feature_code"`
	ModuleCode  string `json:"moduleCode" yaml:"module_code"`
	RoutePath   string `json:"routePath" yaml:"route_path"`
	Description string `json:"description" yaml:"description"`
}

// FeatureRecord is a persisted feature row. Optional text fields are treated
// as absent when empty or whitespace.
type FeatureRecord struct {
	ID            string   `json:"id" yaml:"id"`
	FeatureCode   string   `json:"featureCode" yaml:"feature_code"`
	FeatureName   string   `json:"featureName" yaml:"feature_name"`
	ModuleCode    string   `json:"moduleCode,omitempty" yaml:"module_code,omitempty"`
	RoutePath     string   `json:"routePath,omitempty" yaml:"route_path,omitempty"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	Source        Source   `json:"source" yaml:"source"`
	CreatedAt     utc.Time `json:"createdAt" yaml:"created_at"`
	CreatedByName string   `json:"createdByName,omitempty" yaml:"created_by_name,omitempty"`
	Review        Review   `json:"review" yaml:"review,omitempty"`
}

// Review holds the durable reviewer decision for a record.
type Review struct {
	Status     ReviewStatus `json:"status" yaml:"status"`
	ReviewedBy string       `json:"reviewedBy,omitempty" yaml:"reviewed_by,omitempty"`
	ReviewedAt *utc.Time    `json:"reviewedAt,omitempty" yaml:"reviewed_at,omitempty"`
	Notes      string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// HasRoute reports whether the record carries a route path.
func (r *FeatureRecord) HasRoute() bool {
	return present(r.RoutePath)
}

// HasDescription reports whether the record carries a description.
func (r *FeatureRecord) HasDescription() bool {
	return present(r.Description)
}

// HasModule reports whether the record carries a module code.
func (r *FeatureRecord) HasModule() bool {
	return present(r.ModuleCode)
}

// IsComplete reports whether both route and description are present.
func (r *FeatureRecord) IsComplete() bool {
	return r.HasRoute() && r.HasDescription()
}

// NormalizedName is the duplicate-clustering key for the record name.
func (r *FeatureRecord) NormalizedName() string {
	return NormalizeName(r.FeatureName)
}

// NormalizeName trims and lower-cases a feature name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
