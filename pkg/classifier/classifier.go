// Package classifier assigns each orphaned record a recommendation and a
// human-readable reason by evaluating an ordered rule list. The first rule
// that matches wins; records no rule claims fall back to manual review.
package classifier

import (
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
)

// Reasons attached to non-templated recommendations.
const (
	ReasonIncomplete = "No route or description; appears incomplete/abandoned."
	ReasonComplete   = "Complete, unique feature record."
	ReasonFallback   = "Insufficient signal for automatic classification."
)

// Signals is everything the rules may inspect about one orphan.
type Signals struct {
	Orphan *features.OrphanEntry

	// MergeCluster is set when the orphan belongs to a cluster whose
	// recommendation is merge.
	MergeCluster *MergeCluster

	// InRouteConflict reports membership in a route-conflict cluster.
	InRouteConflict bool

	// Batch is the migration batch containing the orphan, if any.
	Batch *features.MigrationBatch
}

// MergeCluster describes the merge-recommended cluster an orphan is in.
type MergeCluster struct {
	Key     string
	Primary string
	Members []string
}

// Decision is a recommendation plus its rationale.
type Decision struct {
	Recommendation features.Recommendation
	Reason         string
}

// Classifier evaluates rules in order.
type Classifier struct {
	rules []Rule
}

// New creates a classifier running the named rules in the given order.
func New(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	order := cfg.Order
	if len(order) == 0 {
		order = DefaultOrder()
	}

	rules := make([]Rule, 0, len(order))
	for _, name := range order {
		rules = append(rules, registry[name])
	}
	return &Classifier{rules: rules}, nil
}

// Rules returns the names of the active rules in evaluation order.
func (c *Classifier) Rules() []RuleName {
	names := make([]RuleName, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name()
	}
	return names
}

// Classify returns exactly one decision for the orphan.
func (c *Classifier) Classify(s Signals) Decision {
	for _, rule := range c.rules {
		if d, ok := rule.Apply(s); ok {
			return d
		}
	}
	return Decision{Recommendation: features.RecommendReview, Reason: ReasonFallback}
}

// Config configures rule evaluation.
type Config struct {
	// Order lists rule names in evaluation order. Empty means DefaultOrder.
	// Rules left out are disabled. The review fallback always runs last.
	Order []RuleName `json:"rule_order" yaml:"rule_order" mapstructure:"rule_order"`
}

// Validate rejects unknown and repeated rule names.
func (c Config) Validate() error {
	seen := make(map[RuleName]bool, len(c.Order))
	for _, name := range c.Order {
		if _, ok := registry[name]; !ok {
			return errors.NewValidationError("rule_order", name, "unknown classification rule")
		}
		if seen[name] {
			return errors.NewValidationError("rule_order", name, "rule listed more than once")
		}
		seen[name] = true
	}
	return nil
}
