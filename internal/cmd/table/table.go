// Package table converts reconciliation results into rows for terminal
// tables.
package table

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/features"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data is one rendered table.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // optional, one per column
}

// Styler colors cells. The zero value leaves text unchanged.
type Styler struct {
	Color bool
}

var recommendationColors = map[features.Recommendation]*color.Color{
	features.RecommendKeepAsPlanned: color.New(color.FgCyan),
	features.RecommendArchive:       color.New(color.FgYellow),
	features.RecommendDelete:        color.New(color.FgRed, color.Bold),
	features.RecommendMerge:         color.New(color.FgMagenta),
	features.RecommendReview:        color.New(color.FgBlue),
}

// Recommendation renders r, colored when enabled.
func (s Styler) Recommendation(r features.Recommendation) string {
	c, ok := recommendationColors[r]
	if !s.Color || !ok {
		return string(r)
	}
	// color.NoColor is process wide; force output since the caller decided.
	c.EnableColor()
	return c.Sprint(string(r))
}

// Outcome renders a bulk item outcome.
func (s Styler) Outcome(o actions.Outcome) string {
	if !s.Color {
		return string(o)
	}
	var c *color.Color
	switch o {
	case actions.OutcomeSucceeded:
		c = color.New(color.FgGreen)
	case actions.OutcomeFailed:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.FgYellow)
	}
	c.EnableColor()
	return c.Sprint(string(o))
}

// Orphans lists orphan entries. wide adds route, reason, clusters and
// creation time.
func Orphans(orphans []features.OrphanEntry, wide bool, s Styler) Data {
	headers := []string{"ID", "Code", "Name", "Module", "Source", "Recommendation", "Status"}
	if wide {
		headers = append(headers, "Route", "Reason", "Clusters", "Created")
	}

	rows := make([][]string, 0, len(orphans))
	for _, o := range orphans {
		row := []string{
			o.ID,
			o.FeatureCode,
			truncate(o.FeatureName, 40),
			dash(o.ModuleCode),
			string(o.Source),
			s.Recommendation(o.Recommendation),
			string(o.Review.Status),
		}
		if wide {
			row = append(row,
				dash(o.RoutePath),
				truncate(o.RecommendationReason, 60),
				dash(clusterLabel(o.Clusters)),
				o.CreatedAt.Time.Format(time.DateTime),
			)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

func clusterLabel(c features.ClusterRefs) string {
	var parts []string
	if c.DuplicateName != "" {
		parts = append(parts, "duplicate")
	}
	if c.RouteConflict != "" {
		parts = append(parts, "route")
	}
	if c.VariantBase != "" {
		parts = append(parts, "variant:"+c.VariantBase)
	}
	if c.MigrationBatch != nil {
		parts = append(parts, "batch")
	}
	return strings.Join(parts, ",")
}

// Stats renders pass statistics as a key/value table.
func Stats(st analysis.Stats) Data {
	rows := [][]string{
		{"Feature records", strconv.Itoa(st.TotalDBFeatures)},
		{"Registry features", strconv.Itoa(st.RegistryFeatureCount)},
		{"Synced", strconv.Itoa(st.SyncedCount)},
		{"Orphans", strconv.Itoa(st.OrphanCount)},
		{"Shadowed", strconv.Itoa(st.ShadowedCount)},
		{"Duplicate clusters", strconv.Itoa(st.DuplicateClusters)},
		{"Route conflicts", strconv.Itoa(st.RouteConflicts)},
		{"Prefixed variant clusters", strconv.Itoa(st.PrefixedVariantClusters)},
		{"Migration batches", strconv.Itoa(st.MigrationBatches)},
		{"Registry candidates", strconv.Itoa(st.RegistryCandidates)},
	}
	rows = appendCounts(rows, "Source", st.BySource)
	rows = appendCounts(rows, "Recommendation", st.ByRecommendation)
	rows = appendCounts(rows, "Status", st.ByReviewStatus)

	return Data{
		Headers:         []string{"Metric", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

func appendCounts[K ~string](rows [][]string, label string, counts map[K]int) [][]string {
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		rows = append(rows, []string{label + ": " + string(k), strconv.Itoa(counts[k])})
	}
	return rows
}

// Duplicates lists name duplicate clusters.
func Duplicates(clusters []features.OrphanDuplicate) Data {
	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		rows = append(rows, []string{
			c.FeatureName,
			strconv.Itoa(len(c.Entries)),
			entryCodes(c.Entries),
			dash(c.SuggestedPrimary),
			string(c.Recommendation),
		})
	}
	return Data{Headers: []string{"Name", "Count", "Codes", "Primary", "Recommendation"}, Rows: rows}
}

// RouteConflicts lists route conflict clusters.
func RouteConflicts(clusters []features.OrphanRouteConflict) Data {
	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		rows = append(rows, []string{
			c.RoutePath,
			strconv.Itoa(len(c.Entries)),
			entryCodes(c.Entries),
			c.ConflictReason,
		})
	}
	return Data{Headers: []string{"Route", "Count", "Codes", "Reason"}, Rows: rows}
}

// Variants lists prefixed variant clusters.
func Variants(clusters []features.PrefixedVariantCluster) Data {
	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		rows = append(rows, []string{
			c.BaseCode,
			entryCodes(c.Entries),
			dash(strings.Join(c.RegistryCodes, ", ")),
			dash(c.SuggestedPrimary),
			string(c.Recommendation),
		})
	}
	return Data{Headers: []string{"Base", "Orphans", "Registered", "Primary", "Recommendation"}, Rows: rows}
}

// Batches lists migration batches.
func Batches(batches []features.MigrationBatch) Data {
	rows := make([][]string, 0, len(batches))
	for _, b := range batches {
		rows = append(rows, []string{
			b.Timestamp.Time.Format(time.RFC3339),
			strconv.Itoa(b.Count),
			truncate(strings.Join(b.Codes, ", "), 80),
		})
	}
	return Data{
		Headers:         []string{"Timestamp", "Count", "Codes"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignLeft},
	}
}

// Candidates lists proposed registry entries.
func Candidates(candidates []analysis.RegistryCandidate) Data {
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, []string{
			c.OrphanID,
			c.Entry.FeatureCode,
			c.FeatureName,
			dash(c.Entry.ModuleCode),
			dash(c.Entry.RoutePath),
		})
	}
	return Data{Headers: []string{"Orphan ID", "Code", "Name", "Module", "Route"}, Rows: rows}
}

// Bulk lists per-item outcomes of a review action.
func Bulk(res *actions.BulkResult, s Styler) Data {
	rows := make([][]string, 0, len(res.Items))
	for _, it := range res.Items {
		rows = append(rows, []string{
			it.ID,
			dash(it.FeatureCode),
			s.Outcome(it.Outcome),
			transition(it),
			dash(it.Message),
		})
	}
	return Data{Headers: []string{"ID", "Code", "Outcome", "Transition", "Error"}, Rows: rows}
}

func transition(it actions.ItemResult) string {
	if it.From == "" {
		return "-> " + string(it.To)
	}
	return fmt.Sprintf("%s -> %s", it.From, it.To)
}

func entryCodes(entries []features.OrphanEntry) string {
	codes := make([]string, len(entries))
	for i, e := range entries {
		codes[i] = e.FeatureCode
	}
	return truncate(strings.Join(codes, ", "), 80)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
