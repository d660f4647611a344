package transport

import (
	"bytes"
	"context"
	"sync"

	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/logging"
)

var _ features.RegistrySource = (*Registry)(nil)

// Registry reads the registry document from a URL on every pass. Replies
// are revalidated with their ETag, so an unchanged registry is parsed once.
type Registry struct {
	URL    string
	Client *Client

	mu      sync.Mutex
	etag    string
	entries []features.RegistryEntry
}

// NewRegistry creates a remote registry source.
func NewRegistry(url string, client *Client) *Registry {
	if client == nil {
		client = New(nil, "")
	}
	return &Registry{URL: url, Client: client}
}

// Entries implements features.RegistrySource.
func (r *Registry) Entries(ctx context.Context) ([]features.RegistryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resp, err := r.Client.Get(ctx, r.URL, r.etag)
	if err != nil {
		return nil, err
	}
	if resp.NotModified && r.entries != nil {
		logging.FromContext(ctx).Debug().Str("url", r.URL).Msg("Registry not modified")
		return clone(r.entries), nil
	}

	entries, err := features.ParseRegistry(bytes.NewReader(resp.Body), r.URL)
	if err != nil {
		return nil, err
	}
	r.entries, r.etag = entries, resp.ETag
	logging.FromContext(ctx).Debug().
		Str("url", r.URL).
		Int("entries", len(entries)).
		Msg("Fetched registry")
	return clone(entries), nil
}

func clone(entries []features.RegistryEntry) []features.RegistryEntry {
	return append([]features.RegistryEntry(nil), entries...)
}
