// Package featurereg reconciles the feature rows stored by an HR admin
// console against the feature registry declared in code. It reports orphaned
// rows, groups them into duplicate, route-conflict, prefixed-variant and
// migration-batch clusters, recommends a disposition for each, and applies
// reviewer decisions back to the store.
//
// Example usage:
//
//	client, err := featurereg.New(
//	    featurereg.WithStore(st),
//	    featurereg.WithRegistry(features.FileRegistry{Path: "features.yaml"}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.OnOrphanFound(func(o features.OrphanEntry) {
//	    log.Printf("orphan %s: %s", o.FeatureCode, o.Recommendation)
//	})
//
//	result, err := client.Analyze(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = actions.WithReviewer(ctx, "dana")
//	bulk, err := client.ArchiveMany(ctx, result.Batch(ts).IDs)
package featurereg

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentstation/featurereg/internal/embedded"
	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/logging"
)

// Compile-time interface checks to ensure proper implementation.
var (
	_ Client = (*client)(nil)
	_ Store  = (*store.Memory)(nil)
	_ Store  = (*store.SQL)(nil)
)

// Store is the record persistence a Client reads and mutates.
type Store interface {
	analysis.RecordSource
	actions.Store
}

// Client runs analysis passes and applies reviewer decisions.
type Client interface {

	// Analyzer runs and caches analysis passes
	Analyzer

	// Reviewer applies single and bulk review actions
	Reviewer

	// Exporter writes the current orphan list
	Exporter

	// AutoRefresher re-runs analysis on an interval
	AutoRefresher

	// Hooks provides access to event callback registration
	Hooks

	// Close stops background work. It does not close the store.
	Close() error
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	analyzer *analysis.Analyzer
	actions  *actions.Service

	// last is the most recent successful analysis
	mu   sync.RWMutex
	last *analysis.Result

	// analyzeMu serializes passes so hooks see results in order
	analyzeMu sync.Mutex

	// auto refresh state
	refreshMu     sync.Mutex
	refreshTicker *time.Ticker
	stopCh        chan struct{}
	refreshCancel context.CancelFunc
	hooks         *hooks
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.registry == nil {
		o.registry = embedded.Registry{}
	}
	if o.store == nil {
		o.store = store.NewMemory()
	}

	c := &client{
		options: o,
		stopCh:  make(chan struct{}),
		hooks:   newHooks(),
	}

	c.analyzer, err = analysis.New(analysis.WithConfig(o.analysisConfig), analysis.WithClock(o.now))
	if err != nil {
		return nil, err
	}

	c.actions, err = actions.New(o.store,
		actions.WithConfig(o.actionConfig),
		actions.WithClock(o.now),
		actions.WithHook(func(ctx context.Context, item actions.ItemResult) {
			c.hooks.triggerReviewed(ctx, item)
		}),
		actions.WithGuard(c.orphanOnly),
	)
	if err != nil {
		return nil, err
	}

	logging.Debug().
		Bool("normalize_codes", o.analysisConfig.NormalizeCodes).
		Int("batch_threshold", o.analysisConfig.BatchThreshold).
		Int("bulk_concurrency", o.actionConfig.Concurrency).
		Msg("Feature registry client created")

	if o.autoRefresh {
		if err := c.AutoRefreshOn(); err != nil {
			return nil, errors.NewConfigError("client", "starting auto refresh", err)
		}
	}
	return c, nil
}

// orphanOnly refuses review actions on records the registry declares.
func (c *client) orphanOnly(ctx context.Context, rec features.FeatureRecord) error {
	entries, err := c.options.registry.Entries(ctx)
	if err != nil {
		return errors.WrapFetch("registry", err)
	}
	if c.analyzer.Registered(entries, rec.FeatureCode) {
		return errors.NewValidationError("id", rec.ID,
			fmt.Sprintf("feature %q is declared in the registry; only orphans can be reviewed", rec.FeatureCode))
	}
	return nil
}

// Close stops auto refresh.
func (c *client) Close() error {
	return c.AutoRefreshOff()
}
