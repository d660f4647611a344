package featurereg

import (
	"time"

	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
)

// options holds the configuration for a Client.
type options struct {
	registry       features.RegistrySource
	store          Store
	analysisConfig analysis.Config
	actionConfig   actions.Config
	now            func() time.Time

	// autoRefreshInterval is used by AutoRefreshOn; zero means the default
	autoRefreshInterval time.Duration
	autoRefresh         bool
}

func defaults() *options {
	return &options{
		analysisConfig: analysis.DefaultConfig(),
		actionConfig:   actions.DefaultConfig(),
		now:            time.Now,
	}
}

// Option is a function that configures a Client instance.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithRegistry sets the registry source. The embedded registry is used
// otherwise.
func WithRegistry(src features.RegistrySource) Option {
	return func(o *options) error {
		if src == nil {
			return errors.NewValidationError("registry", nil, "cannot be nil")
		}
		o.registry = src
		return nil
	}
}

// WithStore sets the record store. An empty in-memory store is used
// otherwise.
func WithStore(s Store) Option {
	return func(o *options) error {
		if s == nil {
			return errors.NewValidationError("store", nil, "cannot be nil")
		}
		o.store = s
		return nil
	}
}

// WithAnalysisConfig sets the analysis configuration.
func WithAnalysisConfig(cfg analysis.Config) Option {
	return func(o *options) error {
		o.analysisConfig = cfg
		return nil
	}
}

// WithActionConfig sets the review action configuration.
func WithActionConfig(cfg actions.Config) Option {
	return func(o *options) error {
		o.actionConfig = cfg
		return nil
	}
}

// WithClock sets the clock used for analysis metadata and review times.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "cannot be nil")
		}
		o.now = now
		return nil
	}
}

// WithAutoRefresh re-runs analysis every interval once the client is
// created.
func WithAutoRefresh(interval time.Duration) Option {
	return func(o *options) error {
		if err := WithRefreshInterval(interval)(o); err != nil {
			return err
		}
		o.autoRefresh = true
		return nil
	}
}

// WithRefreshInterval sets the interval used by AutoRefreshOn without
// starting the loop.
func WithRefreshInterval(interval time.Duration) Option {
	return func(o *options) error {
		if interval <= 0 {
			return &errors.ValidationError{
				Field:   "autoRefreshInterval",
				Value:   interval,
				Message: "refresh interval must be positive",
			}
		}
		o.autoRefreshInterval = interval
		return nil
	}
}
