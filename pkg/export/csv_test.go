package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg/pkg/export"
	"github.com/agentstation/featurereg/pkg/features"
	ft "github.com/agentstation/featurereg/pkg/features/featurestest"
)

func orphan(rec features.FeatureRecord, r features.Recommendation, reason string) features.OrphanEntry {
	o := features.OrphanFromRecord(rec)
	o.Recommendation = r
	o.RecommendationReason = reason
	return o
}

func TestWriteCSV(t *testing.T) {
	orphans := []features.OrphanEntry{
		orphan(ft.Record("leave", "Leave, Annual", ft.Complete("hr", "/leave", "Leave")),
			features.RecommendKeepAsPlanned, "Complete, unique feature record."),
		orphan(ft.Record("tmp", "Temp", ft.Source(features.SourceAutoMigration)),
			features.RecommendDelete, `Says "hello"`),
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, orphans))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"featureCode", "featureName", "moduleCode", "routePath",
		"source", "recommendation", "recommendationReason",
	}, rows[0])
	assert.Equal(t, []string{
		"leave", "Leave, Annual", "hr", "/leave", "manual_entry", "keep_as_planned", "Complete, unique feature record.",
	}, rows[1])
	assert.Equal(t, []string{"tmp", "Temp", "", "", "auto_migration", "delete", `Says "hello"`}, rows[2])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, nil))
	assert.Equal(t, "featureCode,featureName,moduleCode,routePath,source,recommendation,recommendationReason\n", buf.String())
}

func TestWriteCSVFormulaEscaping(t *testing.T) {
	orphans := []features.OrphanEntry{
		orphan(ft.Record("calc", "=SUM(A1:A9)"), features.RecommendReview, "-"),
	}

	var plain, escaped bytes.Buffer
	require.NoError(t, export.WriteCSV(&plain, orphans))
	require.NoError(t, export.WriteCSV(&escaped, orphans, export.WithFormulaEscaping()))

	assert.Contains(t, plain.String(), ",=SUM(A1:A9),")
	assert.Contains(t, escaped.String(), ",'=SUM(A1:A9),")
	assert.Contains(t, escaped.String(), ",'-\n")
}
