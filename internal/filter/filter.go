// Package filter selects orphans for listing, export and bulk review. The
// same criteria back the CLI flags and the API query parameters.
package filter

import (
	"net/url"
	"slices"
	"strings"

	"github.com/agentstation/featurereg/internal/matcher"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
)

// Cluster kinds accepted by Orphans.Cluster.
const (
	ClusterDuplicate = "duplicate"
	ClusterRoute     = "route"
	ClusterVariant   = "variant"
	ClusterBatch     = "batch"
	ClusterNone      = "none"
)

// Orphans holds filter criteria. Empty fields match everything; list fields
// match any of their values.
type Orphans struct {
	Recommendations []features.Recommendation
	Statuses        []features.ReviewStatus
	Sources         []features.Source
	Modules         []string
	Cluster         string
	Pattern         *matcher.Matcher
}

// Options are the raw criteria as typed by a user.
type Options struct {
	Recommendation string `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	Status         string `json:"status,omitempty" yaml:"status,omitempty"`
	Source         string `json:"source,omitempty" yaml:"source,omitempty"`
	Module         string `json:"module,omitempty" yaml:"module,omitempty"`
	Cluster        string `json:"cluster,omitempty" yaml:"cluster,omitempty"`
	Pattern        string `json:"q,omitempty" yaml:"q,omitempty"`
	PatternType    string `json:"match,omitempty" yaml:"match,omitempty"`
}

// Parse validates raw criteria. List values are comma separated.
func Parse(o Options) (*Orphans, error) {
	f := &Orphans{Modules: split(o.Module)}

	for _, v := range split(o.Recommendation) {
		rec := features.Recommendation(strings.ToLower(v))
		if !slices.Contains(features.Recommendations, rec) {
			return nil, errors.NewValidationError("recommendation", v, "unknown recommendation")
		}
		f.Recommendations = append(f.Recommendations, rec)
	}
	for _, v := range split(o.Status) {
		st, err := features.ParseReviewStatus(strings.ToLower(v))
		if err != nil {
			return nil, err
		}
		f.Statuses = append(f.Statuses, st)
	}
	for _, v := range split(o.Source) {
		src := features.Source(strings.ToLower(v))
		if !slices.Contains(features.Sources, src) {
			return nil, errors.NewValidationError("source", v, "unknown source")
		}
		f.Sources = append(f.Sources, src)
	}

	switch c := strings.ToLower(strings.TrimSpace(o.Cluster)); c {
	case "", ClusterDuplicate, ClusterRoute, ClusterVariant, ClusterBatch, ClusterNone:
		f.Cluster = c
	default:
		return nil, errors.NewValidationError("cluster", o.Cluster, "unknown cluster kind")
	}

	if o.Pattern != "" {
		kind, err := matcher.ParsePatternType(o.PatternType)
		if err != nil {
			return nil, errors.WrapValidation("pattern_type", err)
		}
		m, err := matcher.New(kind, o.Pattern, false)
		if err != nil {
			return nil, errors.WrapValidation("pattern", err)
		}
		f.Pattern = m
	}
	return f, nil
}

// FromQuery reads criteria from URL query parameters.
func FromQuery(q url.Values) (*Orphans, error) {
	return Parse(Options{
		Recommendation: q.Get("recommendation"),
		Status:         q.Get("status"),
		Source:         q.Get("source"),
		Module:         q.Get("module"),
		Cluster:        q.Get("cluster"),
		Pattern:        q.Get("q"),
		PatternType:    q.Get("match"),
	})
}

// Keep reports whether o passes every criterion. A nil filter keeps all.
func (f *Orphans) Keep(o features.OrphanEntry) bool {
	if f == nil {
		return true
	}
	if len(f.Recommendations) > 0 && !slices.Contains(f.Recommendations, o.Recommendation) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Review.Status) {
		return false
	}
	if len(f.Sources) > 0 && !slices.Contains(f.Sources, o.Source) {
		return false
	}
	if len(f.Modules) > 0 && !slices.ContainsFunc(f.Modules, func(m string) bool {
		return strings.EqualFold(m, strings.TrimSpace(o.ModuleCode))
	}) {
		return false
	}
	if !f.inCluster(o.Clusters) {
		return false
	}
	if f.Pattern != nil && !f.Pattern.MatchAny(o.FeatureCode, o.FeatureName, o.RoutePath) {
		return false
	}
	return true
}

func (f *Orphans) inCluster(c features.ClusterRefs) bool {
	switch f.Cluster {
	case ClusterDuplicate:
		return c.DuplicateName != ""
	case ClusterRoute:
		return c.RouteConflict != ""
	case ClusterVariant:
		return c.VariantBase != ""
	case ClusterBatch:
		return c.MigrationBatch != nil
	case ClusterNone:
		return !c.InAnyCluster() && c.MigrationBatch == nil
	default:
		return true
	}
}

// Apply returns the matching orphans in input order.
func (f *Orphans) Apply(orphans []features.OrphanEntry) []features.OrphanEntry {
	out := make([]features.OrphanEntry, 0, len(orphans))
	for _, o := range orphans {
		if f.Keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// IDs returns the record IDs of the matching orphans.
func (f *Orphans) IDs(orphans []features.OrphanEntry) []string {
	var ids []string
	for _, o := range orphans {
		if f.Keep(o) {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

func split(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
