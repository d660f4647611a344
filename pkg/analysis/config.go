package analysis

import (
	"time"

	"github.com/agentstation/featurereg/pkg/classifier"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/patterns"
)

// Config holds the tunable inputs of an analysis pass.
type Config struct {
	// NormalizeCodes matches registry and record codes ignoring case and
	// surrounding whitespace. Off by default: codes match exactly.
	NormalizeCodes bool `json:"normalize_codes" yaml:"normalize_codes" mapstructure:"normalize_codes"`

	// Prefixes are the known portal prefixes for variant detection.
	Prefixes []string `json:"prefixes" yaml:"prefixes" mapstructure:"prefixes"`

	// CanonicalPrefixes ranks prefixes when picking a variant primary.
	CanonicalPrefixes []string `json:"canonical_prefixes" yaml:"canonical_prefixes" mapstructure:"canonical_prefixes"`

	// BatchThreshold is the bucket size a migration batch must exceed.
	BatchThreshold int `json:"batch_threshold" yaml:"batch_threshold" mapstructure:"batch_threshold"`

	// BatchGranularity is the migration bucket width.
	BatchGranularity time.Duration `json:"batch_granularity" yaml:"batch_granularity" mapstructure:"batch_granularity"`

	// RuleOrder is the classification rule order.
	RuleOrder []classifier.RuleName `json:"rule_order" yaml:"rule_order" mapstructure:"rule_order"`
}

// DefaultConfig returns the standard analysis configuration.
func DefaultConfig() Config {
	prefix := patterns.DefaultPrefixConfig()
	batch := patterns.DefaultBatchConfig()
	return Config{
		Prefixes:          prefix.Prefixes,
		CanonicalPrefixes: prefix.CanonicalOrder,
		BatchThreshold:    batch.Threshold,
		BatchGranularity:  batch.Granularity,
		RuleOrder:         classifier.DefaultOrder(),
	}
}

// PrefixConfig returns the prefix detector settings.
func (c Config) PrefixConfig() patterns.PrefixConfig {
	return patterns.PrefixConfig{Prefixes: c.Prefixes, CanonicalOrder: c.CanonicalPrefixes}
}

// BatchConfig returns the batch detector settings.
func (c Config) BatchConfig() patterns.BatchConfig {
	return patterns.BatchConfig{Threshold: c.BatchThreshold, Granularity: c.BatchGranularity}
}

// ClassifierConfig returns the classifier settings.
func (c Config) ClassifierConfig() classifier.Config {
	return classifier.Config{Order: c.RuleOrder}
}

// Validate checks every section of the configuration.
func (c Config) Validate() error {
	if err := c.PrefixConfig().Validate(); err != nil {
		return errors.NewConfigError("analysis", err.Error(), err)
	}
	if err := c.BatchConfig().Validate(); err != nil {
		return errors.NewConfigError("analysis", err.Error(), err)
	}
	if err := c.ClassifierConfig().Validate(); err != nil {
		return errors.NewConfigError("analysis", err.Error(), err)
	}
	return nil
}
