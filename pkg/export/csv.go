// Package export writes orphan analysis results for downstream consumers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/agentstation/featurereg/pkg/features"
)

// Columns is the CSV header. Existing consumers depend on this order.
var Columns = []string{
	"featureCode",
	"featureName",
	"moduleCode",
	"routePath",
	"source",
	"recommendation",
	"recommendationReason",
}

type options struct {
	sanitize bool
}

// Option configures CSV output.
type Option func(*options)

// WithFormulaEscaping prefixes cells starting with =, +, - or @ with a
// single quote so spreadsheets do not evaluate them.
func WithFormulaEscaping() Option {
	return func(o *options) { o.sanitize = true }
}

// WriteCSV writes one row per orphan, in the given order, after the header.
func WriteCSV(w io.Writer, orphans []features.OrphanEntry, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	row := make([]string, len(Columns))
	for _, orphan := range orphans {
		row[0] = orphan.FeatureCode
		row[1] = orphan.FeatureName
		row[2] = orphan.ModuleCode
		row[3] = orphan.RoutePath
		row[4] = string(orphan.Source)
		row[5] = string(orphan.Recommendation)
		row[6] = orphan.RecommendationReason
		if o.sanitize {
			for i := range row {
				row[i] = sanitizeField(row[i])
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row for %s: %w", orphan.FeatureCode, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	return nil
}

func sanitizeField(field string) string {
	if field == "" {
		return field
	}
	switch field[0] {
	case '=', '+', '-', '@':
		return "'" + field
	}
	return field
}
