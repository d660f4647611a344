// Package featurestest provides record builders for tests.
package featurestest

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/featurereg/pkg/features"
)

// Epoch is the default creation time for built records.
var Epoch = time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)

// RecordOption customizes a built record.
type RecordOption func(*features.FeatureRecord)

// Record builds a pending manual-entry record with the given code and name.
// The ID defaults to "id-" + code.
func Record(code, name string, opts ...RecordOption) features.FeatureRecord {
	r := features.FeatureRecord{
		ID:          "id-" + code,
		FeatureCode: code,
		FeatureName: name,
		Source:      features.SourceManualEntry,
		CreatedAt:   utc.New(Epoch),
		Review:      features.Review{Status: features.ReviewPending},
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Complete sets module, route and description.
func Complete(module, route, description string) RecordOption {
	return func(r *features.FeatureRecord) {
		r.ModuleCode = module
		r.RoutePath = route
		r.Description = description
	}
}

// Module sets the module code.
func Module(module string) RecordOption {
	return func(r *features.FeatureRecord) { r.ModuleCode = module }
}

// Route sets the route path.
func Route(route string) RecordOption {
	return func(r *features.FeatureRecord) { r.RoutePath = route }
}

// Description sets the description.
func Description(d string) RecordOption {
	return func(r *features.FeatureRecord) { r.Description = d }
}

// Source sets the record source.
func Source(s features.Source) RecordOption {
	return func(r *features.FeatureRecord) { r.Source = s }
}

// CreatedAt sets the creation time.
func CreatedAt(t time.Time) RecordOption {
	return func(r *features.FeatureRecord) { r.CreatedAt = utc.New(t) }
}

// CreatedAfter offsets the creation time from Epoch.
func CreatedAfter(d time.Duration) RecordOption {
	return CreatedAt(Epoch.Add(d))
}

// ID overrides the record ID.
func ID(id string) RecordOption {
	return func(r *features.FeatureRecord) { r.ID = id }
}

// Status sets the review status.
func Status(s features.ReviewStatus) RecordOption {
	return func(r *features.FeatureRecord) { r.Review.Status = s }
}

// Registry builds registry entries for the given codes.
func Registry(codes ...string) []features.RegistryEntry {
	entries := make([]features.RegistryEntry, len(codes))
	for i, c := range codes {
		entries[i] = features.RegistryEntry{FeatureCode: c, RoutePath: "/" + c, Description: c}
	}
	return entries
}

// Orphans wraps records as orphan entries.
func Orphans(records ...features.FeatureRecord) []features.OrphanEntry {
	out := make([]features.OrphanEntry, len(records))
	for i, r := range records {
		out[i] = features.OrphanFromRecord(r)
	}
	return out
}
