package classifier

import (
	"fmt"
	"strings"

	"github.com/agentstation/featurereg/pkg/features"
)

// RuleName identifies a classification rule in configuration.
type RuleName string

// Built-in rules.
const (
	RuleMerge         RuleName = "merge"
	RuleDelete        RuleName = "delete"
	RuleArchive       RuleName = "archive"
	RuleKeepAsPlanned RuleName = "keep_as_planned"
)

// DefaultOrder returns the standard evaluation order.
func DefaultOrder() []RuleName {
	return []RuleName{RuleMerge, RuleDelete, RuleArchive, RuleKeepAsPlanned}
}

// Rule is one step of the classification chain.
type Rule interface {
	Name() RuleName
	Apply(s Signals) (Decision, bool)
}

var registry = map[RuleName]Rule{
	RuleMerge:         mergeRule{},
	RuleDelete:        deleteRule{},
	RuleArchive:       archiveRule{},
	RuleKeepAsPlanned: keepRule{},
}

// mergeRule claims duplicates inside a merge-recommended cluster.
type mergeRule struct{}

func (mergeRule) Name() RuleName { return RuleMerge }

func (mergeRule) Apply(s Signals) (Decision, bool) {
	if !s.Orphan.HasDuplicate || s.MergeCluster == nil {
		return Decision{}, false
	}
	mc := s.MergeCluster
	others := make([]string, 0, len(mc.Members))
	for _, code := range mc.Members {
		if code != s.Orphan.FeatureCode {
			others = append(others, code)
		}
	}

	var reason string
	if s.Orphan.FeatureCode == mc.Primary {
		reason = fmt.Sprintf("%s is the suggested primary of duplicate cluster %q; merge %s into it.",
			mc.Primary, mc.Key, strings.Join(others, ", "))
	} else {
		reason = fmt.Sprintf("Duplicate of %s in cluster %q; merge into %s.",
			strings.Join(others, ", "), mc.Key, mc.Primary)
	}
	return Decision{Recommendation: features.RecommendMerge, Reason: reason}, true
}

// deleteRule claims records with neither route nor description.
type deleteRule struct{}

func (deleteRule) Name() RuleName { return RuleDelete }

func (deleteRule) Apply(s Signals) (Decision, bool) {
	if s.Orphan.HasRoute() || s.Orphan.HasDescription() {
		return Decision{}, false
	}
	return Decision{Recommendation: features.RecommendDelete, Reason: ReasonIncomplete}, true
}

// archiveRule claims auto-migrated records that arrived in a batch.
type archiveRule struct{}

func (archiveRule) Name() RuleName { return RuleArchive }

func (archiveRule) Apply(s Signals) (Decision, bool) {
	if s.Orphan.Source != features.SourceAutoMigration || s.Batch == nil {
		return Decision{}, false
	}
	reason := fmt.Sprintf("Bulk-migrated record (batch of %d at %s), not individually authored.",
		s.Batch.Count, s.Batch.Timestamp.RFC3339())
	return Decision{Recommendation: features.RecommendArchive, Reason: reason}, true
}

// keepRule claims complete records outside any duplicate or route conflict.
type keepRule struct{}

func (keepRule) Name() RuleName { return RuleKeepAsPlanned }

func (keepRule) Apply(s Signals) (Decision, bool) {
	if !s.Orphan.IsComplete() || s.Orphan.HasDuplicate || s.InRouteConflict {
		return Decision{}, false
	}
	return Decision{Recommendation: features.RecommendKeepAsPlanned, Reason: ReasonComplete}, true
}
