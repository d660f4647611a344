package featurereg

import (
	"context"
	"io"

	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/export"
	"github.com/agentstation/featurereg/pkg/features"
)

// Analyzer runs analysis passes.
type Analyzer interface {
	// Analyze fetches the registry and the records and runs a full pass.
	// A fetch failure returns a DataFetchError and leaves Last unchanged.
	Analyze(ctx context.Context) (*analysis.Result, error)

	// Last returns the most recent successful pass.
	Last() (*analysis.Result, bool)

	// Registry returns the configured registry source.
	Registry() features.RegistrySource
}

// Exporter writes orphans for downstream consumers.
type Exporter interface {
	// ExportCSV runs a fresh pass and writes the orphans that keep
	// accepts, or all of them when keep is nil.
	ExportCSV(ctx context.Context, w io.Writer, keep func(features.OrphanEntry) bool, opts ...export.Option) error
}

// Analyze runs a full pass and fires change hooks.
func (c *client) Analyze(ctx context.Context) (*analysis.Result, error) {
	c.analyzeMu.Lock()
	defer c.analyzeMu.Unlock()

	result, err := c.analyzer.Analyze(ctx, c.options.registry, c.options.store)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	prev := c.last
	c.last = result
	c.mu.Unlock()

	c.hooks.triggerAnalysis(prev, result)
	return result, nil
}

// Last returns the most recent successful pass.
func (c *client) Last() (*analysis.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.last != nil
}

// Registry returns the configured registry source.
func (c *client) Registry() features.RegistrySource {
	return c.options.registry
}

// ExportCSV writes the orphan list as CSV.
func (c *client) ExportCSV(ctx context.Context, w io.Writer, keep func(features.OrphanEntry) bool, opts ...export.Option) error {
	result, err := c.Analyze(ctx)
	if err != nil {
		return err
	}
	orphans := result.Orphans
	if keep != nil {
		orphans = result.OrphansWhere(keep)
	}
	return export.WriteCSV(w, orphans, opts...)
}
