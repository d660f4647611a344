// Package cache provides the response cache used by the HTTP server.
// Entries are encoded response bodies keyed by route and query. Two backends
// exist: an in-process store built on patrickmn/go-cache and a Redis store
// for deployments that run several server replicas.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/agentstation/featurereg/pkg/errors"
)

// Backend names accepted by Config.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Cache stores encoded response bodies.
type Cache interface {
	// Get returns the cached bytes for key. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key with the default TTL.
	Set(ctx context.Context, key string, value []byte) error
	// Clear drops every entry. It is called after any review mutation.
	Clear(ctx context.Context) error
	// Stats reports backend statistics.
	Stats(ctx context.Context) Stats
	// Close releases backend resources.
	Close() error
}

// Stats describes a cache backend.
type Stats struct {
	Backend   string `json:"backend"`
	ItemCount int    `json:"itemCount"`
}

// Config selects and tunes a backend.
type Config struct {
	Backend  string        `mapstructure:"backend" yaml:"backend" json:"backend"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url" json:"redisUrl"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
}

// DefaultConfig returns an in-process cache with a five minute TTL.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		TTL:     5 * time.Minute,
		Prefix:  "featurereg:",
	}
}

// Open builds the backend named by cfg.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	if cfg.TTL <= 0 {
		return nil, errors.NewConfigError("cache", "ttl must be positive", nil)
	}
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemory(cfg.TTL, cfg.TTL*2), nil
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.NewConfigError("cache", "redis backend requires redis_url", nil)
		}
		return NewRedis(ctx, cfg.RedisURL, cfg.Prefix, cfg.TTL)
	default:
		return nil, errors.NewConfigError("cache", "unknown backend "+cfg.Backend, nil)
	}
}
