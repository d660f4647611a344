// Package metrics exposes Prometheus collectors for analysis passes, review
// actions and the HTTP surface. Collectors live on a private registry so
// tests and embedded servers never share global state.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/features"
)

// Metrics holds every collector exported by the service.
type Metrics struct {
	registry *prometheus.Registry

	analysisPasses   prometheus.Counter
	analysisDuration prometheus.Histogram
	orphans          *prometheus.GaugeVec
	reviewStatus     *prometheus.GaugeVec
	clusters         *prometheus.GaugeVec
	reviewItems      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec

	collectors []prometheus.Collector
}

// New creates the collectors and registers them on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.init()
	if err := m.registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) init() {
	m.analysisPasses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "featurereg_analysis_passes_total",
		Help: "Total number of completed analysis passes",
	})

	m.analysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "featurereg_analysis_duration_seconds",
		Help:    "Time taken by an analysis pass",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	m.orphans = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "featurereg_orphans",
			Help: "Orphaned feature records in the last pass by recommendation",
		},
		[]string{"recommendation"},
	)

	m.reviewStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "featurereg_orphans_by_review_status",
			Help: "Orphaned feature records in the last pass by review status",
		},
		[]string{"status"},
	)

	m.clusters = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "featurereg_clusters",
			Help: "Clusters found in the last pass by kind",
		},
		[]string{"kind"}, // duplicate_name, route_conflict, prefixed_variant, migration_batch
	)

	m.reviewItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "featurereg_review_items_total",
			Help: "Review action items by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "featurereg_http_requests_total",
			Help: "HTTP requests by method and status code",
		},
		[]string{"method", "code"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "featurereg_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	m.collectors = []prometheus.Collector{
		m.analysisPasses,
		m.analysisDuration,
		m.orphans,
		m.reviewStatus,
		m.clusters,
		m.reviewItems,
		m.httpRequests,
		m.httpDuration,
	}
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// Attach feeds the collectors from client hooks.
func (m *Metrics) Attach(h featurereg.Hooks) {
	h.OnAnalyzed(m.RecordAnalysis)
	h.OnReviewed(func(_ context.Context, item actions.ItemResult) {
		m.RecordReviewItem(item)
	})
}

// RecordAnalysis updates pass counters and last-pass gauges.
func (m *Metrics) RecordAnalysis(r *analysis.Result) {
	m.analysisPasses.Inc()
	m.analysisDuration.Observe(r.Metadata.Duration.Seconds())

	for _, rec := range features.Recommendations {
		m.orphans.WithLabelValues(string(rec)).Set(float64(r.Stats.ByRecommendation[rec]))
	}
	for _, st := range features.ReviewStatuses {
		m.reviewStatus.WithLabelValues(string(st)).Set(float64(r.Stats.ByReviewStatus[st]))
	}
	m.clusters.WithLabelValues("duplicate_name").Set(float64(r.Stats.DuplicateClusters))
	m.clusters.WithLabelValues("route_conflict").Set(float64(r.Stats.RouteConflicts))
	m.clusters.WithLabelValues("prefixed_variant").Set(float64(r.Stats.PrefixedVariantClusters))
	m.clusters.WithLabelValues("migration_batch").Set(float64(r.Stats.MigrationBatches))
}

// RecordReviewItem counts one attempted review action item.
func (m *Metrics) RecordReviewItem(item actions.ItemResult) {
	m.reviewItems.WithLabelValues(string(item.Action), string(item.Outcome)).Inc()
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(method string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}
