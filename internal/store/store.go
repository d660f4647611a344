// Package store persists feature records and their review state.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
)

// Store is the persistence used by analysis and the review action layer.
type Store interface {
	// List returns every stored record, including reviewed ones.
	List(ctx context.Context) ([]features.FeatureRecord, error)
	// Get returns one record by ID or a NotFoundError.
	Get(ctx context.Context, id string) (features.FeatureRecord, error)
	// Insert adds new records. An existing ID is an AlreadyExists error.
	Insert(ctx context.Context, records ...features.FeatureRecord) error
	// UpdateReview writes review fields when the record still holds
	// update.Expected, and returns a TransitionError otherwise.
	UpdateReview(ctx context.Context, id string, update features.ReviewUpdate) error
	// Delete removes a record permanently when it still holds expected, and
	// returns a TransitionError otherwise. An empty expected always deletes.
	Delete(ctx context.Context, id string, expected features.ReviewStatus) error
	// Close releases any held resources.
	Close() error
}

// Drivers understood by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures a store backend.
type Config struct {
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`
	DSN    string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
}

// DefaultConfig returns an in-memory store configuration.
func DefaultConfig() Config {
	return Config{Driver: DriverMemory}
}

// Validate checks the store configuration.
func (c Config) Validate() error {
	switch strings.ToLower(c.Driver) {
	case DriverMemory:
		return nil
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.DSN) == "" {
			return errors.NewValidationError("dsn", c.DSN, "required for driver "+c.Driver)
		}
		return nil
	default:
		return errors.NewValidationError("driver", c.Driver, "must be one of memory, sqlite, postgres")
	}
}

// Open creates the store described by cfg and applies any pending
// migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConfigError("store", err.Error(), err)
	}
	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return NewMemory(), nil
	}
}

func notFound(id string) error {
	return errors.NewNotFoundError("feature record", id)
}

func alreadyExists(id string) error {
	return fmt.Errorf("feature record %s: %w", id, errors.ErrAlreadyExists)
}
