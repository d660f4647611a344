package cluster

import (
	"sort"
	"strings"

	"github.com/agentstation/utc"

	"github.com/agentstation/featurereg/pkg/features"
)

// Member is the comparable view of one cluster participant. Registry
// entries have no creation time.
type Member struct {
	Code        string
	Module      string
	Route       string
	Description string
	CreatedAt   *utc.Time
}

// Complete reports whether the member has both a route and a description.
func (m Member) Complete() bool {
	return strings.TrimSpace(m.Route) != "" && strings.TrimSpace(m.Description) != ""
}

// MemberOf converts an orphan to a Member.
func MemberOf(o features.OrphanEntry) Member {
	created := o.CreatedAt
	return Member{
		Code:        o.FeatureCode,
		Module:      o.ModuleCode,
		Route:       o.RoutePath,
		Description: o.Description,
		CreatedAt:   &created,
	}
}

// MembersOf converts orphans to Members.
func MembersOf(orphans []features.OrphanEntry) []Member {
	out := make([]Member, len(orphans))
	for i, o := range orphans {
		out[i] = MemberOf(o)
	}
	return out
}

// RegistryMember converts a registry entry to a Member.
func RegistryMember(e features.RegistryEntry) Member {
	return Member{
		Code:        e.FeatureCode,
		Module:      e.ModuleCode,
		Route:       e.RoutePath,
		Description: e.Description,
	}
}

// SuggestPrimary picks the record to keep: complete members first, then the
// earliest created, then the smallest code.
func SuggestPrimary(members []Member) string {
	if len(members) == 0 {
		return ""
	}
	ranked := make([]Member, len(members))
	copy(ranked, members)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Complete() != b.Complete() {
			return a.Complete()
		}
		if c := compareCreated(a.CreatedAt, b.CreatedAt); c != 0 {
			return c < 0
		}
		return a.Code < b.Code
	})
	return ranked[0].Code
}

// EarliestCreated returns the code of the earliest created member, breaking
// ties by code. Members without a creation time sort last.
func EarliestCreated(members []Member) string {
	best := -1
	for i, m := range members {
		if best < 0 {
			best = i
			continue
		}
		c := compareCreated(m.CreatedAt, members[best].CreatedAt)
		if c < 0 || (c == 0 && m.Code < members[best].Code) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return members[best].Code
}

// compareCreated orders known times before unknown ones.
func compareCreated(a, b *utc.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	default:
		return 0
	}
}

// Compare collects the distinct non-empty module, route and description
// values across members. A field differs when it has more than one value.
func Compare(members []Member) features.Differences {
	modules := distinct(members, func(m Member) string { return m.Module })
	routes := distinct(members, func(m Member) string { return m.Route })
	descriptions := distinct(members, func(m Member) string { return m.Description })
	return features.Differences{
		Modules:                  modules,
		RoutePatterns:            routes,
		Descriptions:             descriptions,
		HasDifferentModules:      len(modules) > 1,
		HasDifferentRoutes:       len(routes) > 1,
		HasDifferentDescriptions: len(descriptions) > 1,
	}
}

func distinct(members []Member, field func(Member) string) []string {
	set := make(map[string]struct{})
	for _, m := range members {
		if v := strings.TrimSpace(field(m)); v != "" {
			set[v] = struct{}{}
		}
	}
	return sortedKeys(set)
}
