package server

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/features/featurestest"
	"github.com/agentstation/featurereg/pkg/logging"
)

func newClient(t *testing.T) featurereg.Client {
	t.Helper()
	client, err := featurereg.New(
		featurereg.WithRegistry(features.StaticRegistry(featurestest.Registry("payroll_run"))),
		featurereg.WithStore(store.NewMemory(
			featurestest.Record("payroll_run", "Payroll Run", featurestest.ID("r0")),
			featurestest.Record("leave_export", "Leave Export", featurestest.ID("r1")),
			featurestest.Record("shift_swap", "Shift Swap", featurestest.ID("r2")),
		)),
		featurereg.WithActionConfig(actions.Config{Concurrency: 1, ConfirmThreshold: 10, DefaultReviewer: "api"}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func startServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	tl := logging.NewTestLogger(t)

	srv, err := New(newClient(t), cfg, tl.Logger)
	require.NoError(t, err)
	srv.Start()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		require.NoError(t, srv.Shutdown(context.Background()))
	})
	return ts
}

func request(t *testing.T, method, url, body string, header map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuthEnabled = true
	_, err := New(newClient(t), cfg, nil)
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.Cache.Backend = "memcached"
	_, err = New(newClient(t), cfg, nil)
	require.Error(t, err)
}

func TestShutdownStopsBackgroundServices(t *testing.T) {
	client := newClient(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := DefaultConfig()
	cfg.RateLimit = 10
	srv, err := New(client, cfg, nil)
	require.NoError(t, err)

	srv.Start()
	srv.Broker().Publish("test.event", nil)
	require.NoError(t, srv.Shutdown(context.Background()))
}

func TestServerRoutes(t *testing.T) {
	ts := startServer(t, DefaultConfig())

	resp, body := request(t, http.MethodGet, ts.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "healthy")

	resp, body = request(t, http.MethodGet, ts.URL+"/api/v1/orphans", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"count":2`)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = request(t, http.MethodGet, ts.URL+"/api/v1/analysis/stats", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = request(t, http.MethodPost, ts.URL+"/api/v1/orphans/r1/keep", `{"notes":"needed"}`,
		map[string]string{"X-Reviewer": "hr.lead"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"reviewedBy":"hr.lead"`)

	resp, body = request(t, http.MethodPost, ts.URL+"/api/v1/orphans/bulk/archive", `{"ids":["r2"]}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"succeeded":1`)

	// Method mismatch is answered by the mux.
	resp, _ = request(t, http.MethodDelete, ts.URL+"/api/v1/orphans/r1", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, body = request(t, http.MethodGet, ts.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `featurereg_review_items_total{action="keep",outcome="succeeded"} 1`)
}

func TestServerAuth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuthEnabled = true
	cfg.APIKey = "s3cret"
	ts := startServer(t, cfg)

	resp, _ := request(t, http.MethodGet, ts.URL+"/api/v1/analysis", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request(t, http.MethodGet, ts.URL+"/api/v1/analysis", "", map[string]string{"X-API-Key": "s3cret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = request(t, http.MethodGet, ts.URL+"/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerStreamsReviewEvents(t *testing.T) {
	ts := startServer(t, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/updates/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := make(chan string, 32)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if ev, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
				events <- ev
			}
		}
	}()
	require.Equal(t, "connected", <-events)

	r, body := request(t, http.MethodPost, ts.URL+"/api/v1/orphans/r2/archive", "", nil)
	require.Equal(t, http.StatusOK, r.StatusCode, body)

	seen := map[string]bool{}
	for !seen["review.applied"] || !seen["analysis.completed"] {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed early")
			seen[ev] = true
		case <-ctx.Done():
			t.Fatalf("events not received, saw %v", seen)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RateLimit = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ReviewerHeader = ""
	assert.Error(t, cfg.Validate())
}
