package actions

import (
	"time"

	"github.com/agentstation/featurereg/pkg/errors"
)

// Config configures the action layer.
type Config struct {
	// Concurrency bounds how many bulk items are in flight at once.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// ConfirmThreshold is the largest bulk delete allowed without a
	// confirmation token.
	ConfirmThreshold int `json:"confirm_threshold" yaml:"confirm_threshold" mapstructure:"confirm_threshold"`

	// DefaultReviewer is used when the context carries no reviewer.
	DefaultReviewer string `json:"default_reviewer" yaml:"default_reviewer" mapstructure:"default_reviewer"`
}

// DefaultConfig returns the standard action configuration.
func DefaultConfig() Config {
	return Config{Concurrency: 4, ConfirmThreshold: 10}
}

// Validate checks the action configuration.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return errors.NewValidationError("concurrency", c.Concurrency, "must be at least 1")
	}
	if c.ConfirmThreshold < 0 {
		return errors.NewValidationError("confirm_threshold", c.ConfirmThreshold, "cannot be negative")
	}
	return nil
}

type options struct {
	config Config
	now    func() time.Time
	hooks  []Hook
	guards []Guard
}

func defaultOptions() *options {
	return &options{config: DefaultConfig(), now: time.Now}
}

// Option is a function that configures a Service.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithConfig replaces the action configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithClock sets the clock used for reviewedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}

// WithHook registers an observer for every attempted item.
func WithHook(h Hook) Option {
	return func(o *options) error {
		if h == nil {
			return errors.NewValidationError("hook", nil, "cannot be nil")
		}
		o.hooks = append(o.hooks, h)
		return nil
	}
}

// WithGuard adds a check run against each record before it is written.
func WithGuard(g Guard) Option {
	return func(o *options) error {
		if g != nil {
			o.guards = append(o.guards, g)
		}
		return nil
	}
}
