// Package patterns detects structural patterns among orphaned records:
// families of codes that differ only by a portal prefix, and bulk-created
// migration batches.
package patterns

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentstation/featurereg/pkg/cluster"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
)

// PrefixConfig configures prefixed-variant detection.
type PrefixConfig struct {
	// Prefixes are the known code prefixes. The longest match is stripped.
	Prefixes []string `json:"prefixes" yaml:"prefixes" mapstructure:"prefixes"`

	// CanonicalOrder ranks prefixes when choosing a cluster's primary code,
	// most canonical first. Prefixes not listed rank last.
	CanonicalOrder []string `json:"canonical_order" yaml:"canonical_order" mapstructure:"canonical_order"`
}

// DefaultPrefixConfig returns the employee, manager and admin portal
// prefixes, with the employee portal ranked most canonical.
func DefaultPrefixConfig() PrefixConfig {
	return PrefixConfig{
		Prefixes:       []string{"admin_", "ess_", "mss_"},
		CanonicalOrder: []string{"ess_", "mss_", "admin_"},
	}
}

// Validate checks the prefix configuration. CanonicalOrder may name
// prefixes that are not in Prefixes, so either list can be overridden alone;
// such entries never match and have no effect.
func (c PrefixConfig) Validate() error {
	for _, p := range c.Prefixes {
		if strings.TrimSpace(p) == "" {
			return errors.NewValidationError("prefixes", p, "prefix cannot be empty")
		}
	}
	for _, p := range c.CanonicalOrder {
		if strings.TrimSpace(p) == "" {
			return errors.NewValidationError("canonical_order", p, "prefix cannot be empty")
		}
	}
	return nil
}

// PrefixDetector finds prefixed-variant clusters.
type PrefixDetector struct {
	prefixes []string
	rank     map[string]int
}

// NewPrefixDetector validates cfg and returns a detector.
func NewPrefixDetector(cfg PrefixConfig) (*PrefixDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prefixes := make([]string, len(cfg.Prefixes))
	copy(prefixes, cfg.Prefixes)
	sort.SliceStable(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	rank := make(map[string]int, len(cfg.CanonicalOrder))
	for i, p := range cfg.CanonicalOrder {
		if _, ok := rank[p]; !ok {
			rank[p] = i
		}
	}
	return &PrefixDetector{prefixes: prefixes, rank: rank}, nil
}

// BaseCode strips the longest known prefix from code. prefix is empty when
// none matched.
func (d *PrefixDetector) BaseCode(code string) (base, prefix string) {
	for _, p := range d.prefixes {
		if strings.HasPrefix(code, p) && len(code) > len(p) {
			return code[len(p):], p
		}
	}
	return code, ""
}

type variantGroup struct {
	orphans  []features.OrphanEntry
	registry []features.RegistryEntry
}

// Detect groups orphans, together with registry entries sharing their base
// code, into clusters of two or more members. Clusters are ordered by base
// code and always contain at least one orphan.
func (d *PrefixDetector) Detect(orphans []features.OrphanEntry, registry []features.RegistryEntry) []features.PrefixedVariantCluster {
	groups := make(map[string]*variantGroup)
	for _, o := range orphans {
		base, _ := d.BaseCode(o.FeatureCode)
		g, ok := groups[base]
		if !ok {
			g = &variantGroup{}
			groups[base] = g
		}
		g.orphans = append(g.orphans, o)
	}
	for _, e := range registry {
		base, _ := d.BaseCode(e.FeatureCode)
		if g, ok := groups[base]; ok {
			g.registry = append(g.registry, e)
		}
	}

	bases := make([]string, 0, len(groups))
	for base, g := range groups {
		if len(g.orphans)+len(g.registry) >= 2 {
			bases = append(bases, base)
		}
	}
	sort.Strings(bases)

	clusters := make([]features.PrefixedVariantCluster, 0, len(bases))
	for _, base := range bases {
		clusters = append(clusters, d.build(base, groups[base]))
	}
	return clusters
}

func (d *PrefixDetector) build(base string, g *variantGroup) features.PrefixedVariantCluster {
	orphanMembers := cluster.MembersOf(g.orphans)
	members := append([]cluster.Member{}, orphanMembers...)
	registryCodes := make([]string, 0, len(g.registry))
	for _, e := range g.registry {
		members = append(members, cluster.RegistryMember(e))
		registryCodes = append(registryCodes, e.FeatureCode)
	}
	sort.Strings(registryCodes)

	primary := d.primary(members, orphanMembers)
	diffs := cluster.Compare(members)
	rec := recommendVariants(diffs)

	return features.PrefixedVariantCluster{
		BaseCode:            base,
		Entries:             g.orphans,
		RegistryCodes:       registryCodes,
		SuggestedPrimary:    primary,
		Differences:         diffs,
		Recommendation:      rec,
		MergeRecommendation: cluster.Describe(rec, fmt.Sprintf("sharing base code %s", base), len(members), primary, diffs),
	}
}

// primary prefers the unprefixed code, then the most canonical prefix, then
// the earliest created orphan.
func (d *PrefixDetector) primary(members, orphanMembers []cluster.Member) string {
	best, bestRank := "", -1
	for _, m := range members {
		_, prefix := d.BaseCode(m.Code)
		if prefix == "" {
			return m.Code
		}
		r, ok := d.rank[prefix]
		if !ok {
			continue
		}
		if bestRank < 0 || r < bestRank || (r == bestRank && m.Code < best) {
			best, bestRank = m.Code, r
		}
	}
	if best != "" {
		return best
	}
	return cluster.EarliestCreated(orphanMembers)
}

// recommendVariants maps variant differences to a resolution. Portal
// variants legitimately live in different modules, so divergent modules
// keep both rather than renaming.
func recommendVariants(d features.Differences) features.ClusterRecommendation {
	switch {
	case d.Identical():
		return features.ClusterMerge
	case d.HasDifferentModules:
		return features.ClusterKeepBoth
	default:
		return features.ClusterReview
	}
}
