// Package cluster groups orphaned feature records that likely describe the
// same feature: records sharing a normalized name, and records mapped to the
// same route. Each record lands in at most one cluster of each kind.
package cluster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentstation/featurereg/pkg/features"
)

// Duplicates groups orphans by trimmed, lower-cased feature name. Only
// groups with two or more members are returned, ordered by name.
func Duplicates(orphans []features.OrphanEntry) []features.OrphanDuplicate {
	groups := make(map[string][]features.OrphanEntry)
	for _, o := range orphans {
		key := o.NormalizedName()
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], o)
	}

	clusters := []features.OrphanDuplicate{}
	for _, key := range sortedKeys(groups) {
		entries := groups[key]
		if len(entries) < 2 {
			continue
		}

		members := MembersOf(entries)
		primary := SuggestPrimary(members)
		diffs := Compare(members)
		rec := Recommend(diffs)

		clusters = append(clusters, features.OrphanDuplicate{
			FeatureName:         key,
			Entries:             entries,
			SuggestedPrimary:    primary,
			Differences:         diffs,
			Recommendation:      rec,
			MergeRecommendation: Describe(rec, fmt.Sprintf("named %q", key), len(entries), primary, diffs),
		})
	}
	return clusters
}

// RouteConflicts groups orphans by non-empty route path. Only groups with
// two or more members are returned, ordered by route.
func RouteConflicts(orphans []features.OrphanEntry) []features.OrphanRouteConflict {
	groups := make(map[string][]features.OrphanEntry)
	for _, o := range orphans {
		route := strings.TrimSpace(o.RoutePath)
		if route == "" {
			continue
		}
		groups[route] = append(groups[route], o)
	}

	conflicts := []features.OrphanRouteConflict{}
	for _, route := range sortedKeys(groups) {
		entries := groups[route]
		if len(entries) < 2 {
			continue
		}
		conflicts = append(conflicts, features.OrphanRouteConflict{
			RoutePath:      route,
			Entries:        entries,
			ConflictReason: fmt.Sprintf("%d records map to the same route; only one should remain active.", len(entries)),
		})
	}
	return conflicts
}

// Recommend maps the differences of a name-duplicate cluster to a
// resolution: identical content merges, divergent modules suggest renaming
// one record, and anything else needs a reviewer.
func Recommend(d features.Differences) features.ClusterRecommendation {
	switch {
	case d.Identical():
		return features.ClusterMerge
	case d.HasDifferentModules:
		return features.ClusterRenameOne
	default:
		return features.ClusterReview
	}
}

// Describe renders the merge recommendation sentence for a cluster. subject
// completes "N records ..." e.g. `named "leave"` or `sharing base code leave`.
func Describe(rec features.ClusterRecommendation, subject string, n int, primary string, d features.Differences) string {
	switch rec {
	case features.ClusterMerge:
		return fmt.Sprintf("%d records %s carry identical content; merge them into %s and retire the rest.", n, subject, primary)
	case features.ClusterRenameOne:
		return fmt.Sprintf("%d records %s span modules %s; rename one so each module's feature is distinct, keeping %s.",
			n, subject, strings.Join(d.Modules, ", "), primary)
	case features.ClusterKeepBoth:
		return fmt.Sprintf("%d records %s are per-module variants (%s); keep them, using %s as the canonical code.",
			n, subject, strings.Join(d.Modules, ", "), primary)
	default:
		return fmt.Sprintf("%d records %s differ in %s; review before choosing %s as the primary.",
			n, subject, strings.Join(differingFields(d), " and "), primary)
	}
}

func differingFields(d features.Differences) []string {
	var fields []string
	if d.HasDifferentModules {
		fields = append(fields, "module")
	}
	if d.HasDifferentRoutes {
		fields = append(fields, "route")
	}
	if d.HasDifferentDescriptions {
		fields = append(fields, "description")
	}
	return fields
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
