// Package analysis runs the full reconciliation pass: it computes orphans,
// clusters them, detects prefix families and migration batches, classifies
// every orphan, and selects registry candidates. A pass is a pure function
// of its inputs; re-running it on unchanged data yields identical output.
package analysis

import (
	"context"
	"sort"
	"time"

	"github.com/agentstation/utc"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/featurereg/pkg/classifier"
	"github.com/agentstation/featurereg/pkg/cluster"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/logging"
	"github.com/agentstation/featurereg/pkg/patterns"
	"github.com/agentstation/featurereg/pkg/reconciler"
)

// RecordSource lists persisted feature records.
type RecordSource interface {
	List(ctx context.Context) ([]features.FeatureRecord, error)
}

// Analyzer runs analysis passes with a fixed configuration.
type Analyzer struct {
	config     Config
	reconciler reconciler.Reconciler
	prefixes   *patterns.PrefixDetector
	batches    *patterns.BatchDetector
	classifier *classifier.Classifier
	now        func() time.Time
}

// New creates an Analyzer.
func New(opts ...Option) (*Analyzer, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	cfg := o.config

	rec, err := reconciler.New(reconciler.WithNormalizedCodes(cfg.NormalizeCodes))
	if err != nil {
		return nil, err
	}
	prefixes, err := patterns.NewPrefixDetector(cfg.PrefixConfig())
	if err != nil {
		return nil, err
	}
	batches, err := patterns.NewBatchDetector(cfg.BatchConfig())
	if err != nil {
		return nil, err
	}
	cls, err := classifier.New(cfg.ClassifierConfig())
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		config:     cfg,
		reconciler: rec,
		prefixes:   prefixes,
		batches:    batches,
		classifier: cls,
		now:        o.now,
	}, nil
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() Config {
	return a.config
}

// Registered reports whether code is declared in registry, using the same
// code comparison as a pass.
func (a *Analyzer) Registered(registry []features.RegistryEntry, code string) bool {
	return a.reconciler.Registered(registry, code)
}

// Analyze fetches the registry and the records, then runs a pass. A failure
// to read either input aborts the pass with a DataFetchError.
func (a *Analyzer) Analyze(ctx context.Context, registry features.RegistrySource, records RecordSource) (*Result, error) {
	ctx = logging.WithOperation(ctx, "analyze")
	logger := logging.FromContext(ctx)

	var (
		entries []features.RegistryEntry
		rows    []features.FeatureRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = registry.Entries(gctx)
		return errors.WrapFetch("registry", err)
	})
	g.Go(func() error {
		var err error
		rows, err = records.List(gctx)
		return errors.WrapFetch("store", err)
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Failed to fetch analysis inputs")
		return nil, err
	}

	result := a.Run(entries, rows)

	logger.Info().
		Int("registry", result.Stats.RegistryFeatureCount).
		Int("records", result.Stats.TotalDBFeatures).
		Int("orphans", result.Stats.OrphanCount).
		Int("candidates", result.Stats.RegistryCandidates).
		Dur("duration", result.Metadata.Duration).
		Msg("Analysis complete")
	for _, w := range result.Warnings {
		logger.Warn().Msg(w)
	}
	return result, nil
}

// Run performs one pass over already-fetched inputs.
func (a *Analyzer) Run(registry []features.RegistryEntry, records []features.FeatureRecord) *Result {
	start := a.now()

	rr := a.reconciler.Reconcile(registry, records)
	orphans := rr.Orphans

	duplicates := cluster.Duplicates(orphans)
	routes := cluster.RouteConflicts(orphans)
	variants := a.prefixes.Detect(orphans, registry)
	batches := a.batches.Detect(orphans)

	idx := make(map[string]int, len(orphans))
	for i, o := range orphans {
		idx[o.FeatureCode] = i
	}

	merges := make(map[string]*classifier.MergeCluster)
	related := make(map[string]map[string]struct{})
	relate := func(code string, members []string) {
		set, ok := related[code]
		if !ok {
			set = make(map[string]struct{})
			related[code] = set
		}
		for _, m := range members {
			if m != code {
				set[m] = struct{}{}
			}
		}
	}

	for _, c := range duplicates {
		codes := entryCodes(c.Entries)
		var mc *classifier.MergeCluster
		if c.Recommendation == features.ClusterMerge {
			mc = &classifier.MergeCluster{Key: c.FeatureName, Primary: c.SuggestedPrimary, Members: codes}
		}
		for _, code := range codes {
			o := &orphans[idx[code]]
			o.Clusters.DuplicateName = c.FeatureName
			relate(code, codes)
			if mc != nil {
				merges[code] = mc
			}
		}
	}

	for _, c := range variants {
		codes := c.Codes()
		var mc *classifier.MergeCluster
		if c.Recommendation == features.ClusterMerge {
			mc = &classifier.MergeCluster{Key: c.BaseCode, Primary: c.SuggestedPrimary, Members: codes}
		}
		for _, e := range c.Entries {
			o := &orphans[idx[e.FeatureCode]]
			o.Clusters.VariantBase = c.BaseCode
			relate(e.FeatureCode, codes)
			if _, taken := merges[e.FeatureCode]; mc != nil && !taken {
				merges[e.FeatureCode] = mc
			}
		}
	}

	conflicted := make(map[string]bool)
	for _, c := range routes {
		for _, e := range c.Entries {
			orphans[idx[e.FeatureCode]].Clusters.RouteConflict = c.RoutePath
			conflicted[e.FeatureCode] = true
		}
	}

	inBatch := make(map[string]*features.MigrationBatch)
	for i := range batches {
		b := &batches[i]
		for _, code := range b.Codes {
			ts := b.Timestamp
			orphans[idx[code]].Clusters.MigrationBatch = &ts
			inBatch[code] = b
		}
	}

	for i := range orphans {
		o := &orphans[i]
		if set := related[o.FeatureCode]; len(set) > 0 {
			o.HasDuplicate = true
			o.DuplicateOf = sortedSet(set)
		}
		d := a.classifier.Classify(classifier.Signals{
			Orphan:          o,
			MergeCluster:    merges[o.FeatureCode],
			InRouteConflict: conflicted[o.FeatureCode],
			Batch:           inBatch[o.FeatureCode],
		})
		o.Recommendation = d.Recommendation
		o.RecommendationReason = d.Reason
	}

	hydrate := func(entries []features.OrphanEntry) {
		for i := range entries {
			entries[i] = orphans[idx[entries[i].FeatureCode]]
		}
	}
	for i := range duplicates {
		hydrate(duplicates[i].Entries)
	}
	for i := range routes {
		hydrate(routes[i].Entries)
	}
	for i := range variants {
		hydrate(variants[i].Entries)
	}

	result := &Result{
		Orphans:            orphans,
		Duplicates:         duplicates,
		RouteConflicts:     routes,
		PrefixedVariants:   variants,
		MigrationBatches:   batches,
		RegistryCandidates: candidates(orphans),
		Warnings:           rr.Warnings,
	}
	result.Stats = computeStats(rr, result)

	end := a.now()
	result.Metadata = Metadata{
		AnalyzedAt: utc.New(start),
		Duration:   end.Sub(start),
		Rules:      a.classifier.Rules(),
	}
	return result
}

// candidates selects keep_as_planned orphans that belong to no cluster.
func candidates(orphans []features.OrphanEntry) []RegistryCandidate {
	out := []RegistryCandidate{}
	for _, o := range orphans {
		if o.Recommendation != features.RecommendKeepAsPlanned || o.Clusters.InAnyCluster() {
			continue
		}
		out = append(out, RegistryCandidate{
			OrphanID:    o.ID,
			FeatureName: o.FeatureName,
			Entry: features.RegistryEntry{
				FeatureCode: o.FeatureCode,
				ModuleCode:  o.ModuleCode,
				RoutePath:   o.RoutePath,
				Description: o.Description,
			},
		})
	}
	return out
}

func entryCodes(entries []features.OrphanEntry) []string {
	codes := make([]string, len(entries))
	for i, e := range entries {
		codes[i] = e.FeatureCode
	}
	return codes
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
