package patterns

import (
	"sort"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
)

// BatchConfig configures migration-batch detection.
type BatchConfig struct {
	// Threshold is the bucket size that must be exceeded to form a batch.
	Threshold int `json:"threshold" yaml:"threshold" mapstructure:"threshold"`

	// Granularity is the bucket width. Zero buckets on exact timestamps.
	Granularity time.Duration `json:"granularity" yaml:"granularity" mapstructure:"granularity"`
}

// DefaultBatchConfig treats more than ten records created in the same
// second as one batch.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{Threshold: 10, Granularity: time.Second}
}

// Validate checks the batch configuration.
func (c BatchConfig) Validate() error {
	if c.Threshold < 1 {
		return errors.NewValidationError("batch_threshold", c.Threshold, "must be at least 1")
	}
	if c.Granularity < 0 {
		return errors.NewValidationError("batch_granularity", c.Granularity, "cannot be negative")
	}
	return nil
}

// BatchDetector finds timestamp-correlated migration batches.
type BatchDetector struct {
	cfg BatchConfig
}

// NewBatchDetector validates cfg and returns a detector.
func NewBatchDetector(cfg BatchConfig) (*BatchDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &BatchDetector{cfg: cfg}, nil
}

// Bucket returns the bucket timestamp for t.
func (d *BatchDetector) Bucket(t utc.Time) utc.Time {
	if d.cfg.Granularity <= 0 {
		return t
	}
	return utc.New(t.Time.Truncate(d.cfg.Granularity))
}

// Detect buckets orphans by creation time and returns buckets larger than
// the threshold, oldest first. Codes keep the orphan order.
func (d *BatchDetector) Detect(orphans []features.OrphanEntry) []features.MigrationBatch {
	buckets := make(map[int64]*features.MigrationBatch)
	for _, o := range orphans {
		ts := d.Bucket(o.CreatedAt)
		key := ts.UnixNano()
		b, ok := buckets[key]
		if !ok {
			b = &features.MigrationBatch{Timestamp: ts}
			buckets[key] = b
		}
		b.Count++
		b.Codes = append(b.Codes, o.FeatureCode)
		b.IDs = append(b.IDs, o.ID)
	}

	batches := []features.MigrationBatch{}
	for _, b := range buckets {
		if b.Count > d.cfg.Threshold {
			batches = append(batches, *b)
		}
	}
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].Timestamp.Before(batches[j].Timestamp)
	})
	return batches
}
