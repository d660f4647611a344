package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryDoc = `features:
  - feature_code: payroll_run
    module_code: payroll
    route_path: /payroll/run
  - feature_code: leave_export
`

func TestRegistryFetchesAndRevalidates(t *testing.T) {
	var hits, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(registryDoc))
	}))
	defer srv.Close()

	reg := NewRegistry(srv.URL, New(&BearerAuth{}, "s3cret"))

	first, err := reg.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "payroll_run", first[0].FeatureCode)

	first[0].FeatureCode = "mutated"

	second, err := reg.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "payroll_run", second[0].FeatureCode, "cached entries are copied")
	assert.EqualValues(t, 2, hits.Load())
	assert.EqualValues(t, 1, notModified.Load())
}

func TestRegistryErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.Error(w, "gone", http.StatusNotFound)
		default:
			_, _ = w.Write([]byte("features: [{feature_code: a}, {feature_code: a}]"))
		}
	}))
	defer srv.Close()

	_, err := NewRegistry(srv.URL+"/missing", nil).Entries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = NewRegistry(srv.URL+"/dup", nil).Entries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestClientSkipsAuthWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := New(&BearerAuth{}, "").Get(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Body)
}
