package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process TTL cache.
type Memory struct {
	store *gocache.Cache

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemory creates a cache whose entries expire after ttl. Expired entries
// are purged every cleanupInterval until Close; zero disables purging and
// expired entries are then only hidden from Get.
func NewMemory(ttl, cleanupInterval time.Duration) *Memory {
	// The go-cache janitor cannot be stopped, so purging runs here instead.
	m := &Memory{
		store: gocache.New(ttl, 0),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if cleanupInterval <= 0 {
		close(m.done)
		return m
	}
	go m.purge(cleanupInterval)
	return m
}

func (m *Memory) purge(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.store.DeleteExpired()
		}
	}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.store.Set(key, value, gocache.DefaultExpiration)
	return nil
}

// Clear implements Cache.
func (m *Memory) Clear(_ context.Context) error {
	m.store.Flush()
	return nil
}

// Stats implements Cache.
func (m *Memory) Stats(_ context.Context) Stats {
	return Stats{Backend: BackendMemory, ItemCount: m.store.ItemCount()}
}

// Close stops purging and waits for it to exit. It is safe to call more
// than once.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
	return nil
}
