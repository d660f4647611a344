package featurereg

import (
	"context"
	"sync"

	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/features"
)

// Hook function types for analysis and review events
type (
	// AnalyzedHook is called after every successful analysis pass
	AnalyzedHook func(result *analysis.Result)

	// OrphanFoundHook is called when a record becomes an orphan
	OrphanFoundHook func(orphan features.OrphanEntry)

	// OrphanResolvedHook is called when an orphan disappears from the result
	OrphanResolvedHook func(orphan features.OrphanEntry)

	// RecommendationChangedHook is called when an orphan's recommendation changes
	RecommendationChangedHook func(old, new features.OrphanEntry)

	// ReviewedHook is called for every attempted review action item
	ReviewedHook func(ctx context.Context, item actions.ItemResult)
)

// Hooks provides event callback registration.
type Hooks interface {
	OnAnalyzed(AnalyzedHook)
	OnOrphanFound(OrphanFoundHook)
	OnOrphanResolved(OrphanResolvedHook)
	OnRecommendationChanged(RecommendationChangedHook)
	OnReviewed(ReviewedHook)
}

// hooks manages event callbacks.
type hooks struct {
	mu                      sync.RWMutex
	onAnalyzed              []AnalyzedHook
	onOrphanFound           []OrphanFoundHook
	onOrphanResolved        []OrphanResolvedHook
	onRecommendationChanged []RecommendationChangedHook
	onReviewed              []ReviewedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnAnalyzed registers a callback for completed analysis passes.
func (c *client) OnAnalyzed(fn AnalyzedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onAnalyzed = append(c.hooks.onAnalyzed, fn)
}

// OnOrphanFound registers a callback for newly orphaned records.
func (c *client) OnOrphanFound(fn OrphanFoundHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onOrphanFound = append(c.hooks.onOrphanFound, fn)
}

// OnOrphanResolved registers a callback for orphans that left the result.
func (c *client) OnOrphanResolved(fn OrphanResolvedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onOrphanResolved = append(c.hooks.onOrphanResolved, fn)
}

// OnRecommendationChanged registers a callback for changed recommendations.
func (c *client) OnRecommendationChanged(fn RecommendationChangedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRecommendationChanged = append(c.hooks.onRecommendationChanged, fn)
}

// OnReviewed registers a callback for review action items.
func (c *client) OnReviewed(fn ReviewedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onReviewed = append(c.hooks.onReviewed, fn)
}

func (h *hooks) triggerReviewed(ctx context.Context, item actions.ItemResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onReviewed {
		hook(ctx, item)
	}
}

// triggerAnalysis compares two passes by record ID and fires the change
// hooks. The first pass reports every orphan as found.
func (h *hooks) triggerAnalysis(prev, next *analysis.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	old := make(map[string]features.OrphanEntry)
	if prev != nil {
		for _, o := range prev.Orphans {
			old[o.ID] = o
		}
	}

	current := make(map[string]struct{}, len(next.Orphans))
	for _, o := range next.Orphans {
		current[o.ID] = struct{}{}
		before, existed := old[o.ID]
		switch {
		case !existed:
			for _, hook := range h.onOrphanFound {
				hook(o)
			}
		case before.Recommendation != o.Recommendation:
			for _, hook := range h.onRecommendationChanged {
				hook(before, o)
			}
		}
	}

	if prev != nil {
		for _, o := range prev.Orphans {
			if _, still := current[o.ID]; !still {
				for _, hook := range h.onOrphanResolved {
					hook(o)
				}
			}
		}
	}

	for _, hook := range h.onAnalyzed {
		hook(next)
	}
}
