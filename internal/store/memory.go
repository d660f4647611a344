package store

import (
	"context"
	"slices"
	"sync"

	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
)

// Memory is a concurrent safe in-process store.
type Memory struct {
	mu      sync.RWMutex
	records map[string]features.FeatureRecord
	order   []string
}

// NewMemory creates an empty memory store seeded with records.
func NewMemory(records ...features.FeatureRecord) *Memory {
	m := &Memory{records: make(map[string]features.FeatureRecord, len(records))}
	for _, r := range records {
		if _, exists := m.records[r.ID]; exists {
			continue
		}
		m.records[r.ID] = clone(r)
		m.order = append(m.order, r.ID)
	}
	return m
}

// List returns copies of all records in insertion order.
func (m *Memory) List(ctx context.Context) ([]features.FeatureRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]features.FeatureRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, clone(m.records[id]))
	}
	return out, nil
}

// Get returns a copy of one record.
func (m *Memory) Get(ctx context.Context, id string) (features.FeatureRecord, error) {
	if err := ctx.Err(); err != nil {
		return features.FeatureRecord{}, err
	}
	m.mu.RLock()
	r, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return features.FeatureRecord{}, notFound(id)
	}
	return clone(r), nil
}

// Insert adds records, rejecting the whole call if any ID is taken.
func (m *Memory) Insert(ctx context.Context, records ...features.FeatureRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID == "" {
			return errors.NewValidationError("id", r.ID, "cannot be empty")
		}
		if _, exists := m.records[r.ID]; exists {
			return alreadyExists(r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return alreadyExists(r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	for _, r := range records {
		m.records[r.ID] = clone(r)
		m.order = append(m.order, r.ID)
	}
	return nil
}

// UpdateReview writes review fields if the record still holds
// update.Expected.
func (m *Memory) UpdateReview(ctx context.Context, id string, update features.ReviewUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return notFound(id)
	}
	if current := statusOf(r); update.Expected != "" && current != update.Expected {
		return errors.NewTransitionError(string(current), string(update.Status))
	}
	update.Apply(&r.Review)
	m.records[id] = clone(r)
	return nil
}

// Delete removes a record if it still holds expected. An empty expected
// deletes unconditionally.
func (m *Memory) Delete(ctx context.Context, id string, expected features.ReviewStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return notFound(id)
	}
	if current := statusOf(r); expected != "" && current != expected {
		return errors.NewTransitionError(string(current), string(features.ReviewDeleted))
	}
	delete(m.records, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func clone(r features.FeatureRecord) features.FeatureRecord {
	if r.Review.ReviewedAt != nil {
		at := *r.Review.ReviewedAt
		r.Review.ReviewedAt = &at
	}
	return r
}

func statusOf(r features.FeatureRecord) features.ReviewStatus {
	if r.Review.Status == "" {
		return features.ReviewPending
	}
	return r.Review.Status
}
