// Package reconciler computes the orphan set: persisted feature records whose
// code has no entry in the code-declared registry.
package reconciler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentstation/featurereg/pkg/features"
)

// Reconciler compares the registry against persisted records.
type Reconciler interface {
	// Reconcile returns the orphans among records. It performs no I/O.
	Reconcile(registry []features.RegistryEntry, records []features.FeatureRecord) *Result
	// Registered reports whether code matches a registry entry.
	Registered(registry []features.RegistryEntry, code string) bool
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	normalizeCodes bool
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{normalizeCodes: options.normalizeCodes}, nil
}

// Reconcile performs the set difference. Records are ordered by creation
// time, then code, then ID before the comparison so the orphan order does
// not depend on the order the store returned them in.
func (r *reconciler) Reconcile(registry []features.RegistryEntry, records []features.FeatureRecord) *Result {
	registered := make(map[string]struct{}, len(registry))
	for _, entry := range registry {
		registered[r.key(entry.FeatureCode)] = struct{}{}
	}

	ordered := make([]features.FeatureRecord, len(records))
	copy(ordered, records)
	SortRecords(ordered)

	result := &Result{
		Orphans:              []features.OrphanEntry{},
		TotalDBFeatures:      len(records),
		RegistryFeatureCount: len(registry),
	}

	seen := make(map[string]string, len(ordered))
	for _, rec := range ordered {
		key := r.key(rec.FeatureCode)
		if _, ok := registered[key]; ok {
			continue
		}
		if firstID, dup := seen[key]; dup {
			result.Shadowed = append(result.Shadowed, rec)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("record %s repeats feature code %q already held by record %s", rec.ID, rec.FeatureCode, firstID))
			continue
		}
		seen[key] = rec.ID
		result.Orphans = append(result.Orphans, features.OrphanFromRecord(rec))
	}

	// Shadowed rows count as synced; they are listed in Shadowed.
	result.SyncedCount = result.TotalDBFeatures - len(result.Orphans)
	return result
}

func (r *reconciler) Registered(registry []features.RegistryEntry, code string) bool {
	key := r.key(code)
	for _, entry := range registry {
		if r.key(entry.FeatureCode) == key {
			return true
		}
	}
	return false
}

func (r *reconciler) key(code string) string {
	if r.normalizeCodes {
		return strings.ToLower(strings.TrimSpace(code))
	}
	return code
}

// SortRecords orders records by creation time, feature code, then ID.
func SortRecords(records []features.FeatureRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.FeatureCode != b.FeatureCode {
			return a.FeatureCode < b.FeatureCode
		}
		return a.ID < b.ID
	})
}
