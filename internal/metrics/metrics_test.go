package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/features/featurestest"
)

func TestRecordReviewItem(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.RecordReviewItem(actions.ItemResult{Action: actions.ActionArchive, Outcome: actions.OutcomeSucceeded})
	m.RecordReviewItem(actions.ItemResult{Action: actions.ActionArchive, Outcome: actions.OutcomeSucceeded})
	m.RecordReviewItem(actions.ItemResult{Action: actions.ActionDelete, Outcome: actions.OutcomeFailed})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reviewItems.WithLabelValues("archive", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviewItems.WithLabelValues("delete", "failed")))
}

func TestAttachRecordsPasses(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	recs := []features.FeatureRecord{
		featurestest.Record("orphan_a", "Orphan A", featurestest.ID("r1")),
		featurestest.Record("orphan_b", "Orphan B", featurestest.ID("r2"), featurestest.CreatedAfter(time.Hour)),
	}

	client, err := featurereg.New(
		featurereg.WithRegistry(features.StaticRegistry{}),
		featurereg.WithStore(store.NewMemory(recs...)),
		featurereg.WithActionConfig(actions.Config{Concurrency: 1, ConfirmThreshold: 10, DefaultReviewer: "ops"}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	m.Attach(client)

	ctx := context.Background()
	_, err = client.Analyze(ctx)
	require.NoError(t, err)
	require.NoError(t, client.Archive(ctx, "r1"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analysisPasses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviewItems.WithLabelValues("archive", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviewStatus.WithLabelValues("archived")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviewStatus.WithLabelValues("pending")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.RecordHTTP(http.MethodGet, http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `featurereg_http_requests_total{code="200",method="GET"} 1`)
}
