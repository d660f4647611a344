// Package actions applies reviewer decisions to orphaned feature records.
// Single actions validate the review state transition before writing. Bulk
// actions are not transactional: every item is attempted independently and
// reported on its own, and one failure never stops its siblings.
package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/logging"
)

// Action names a reviewer decision.
type Action string

// Supported actions.
const (
	ActionArchive  Action = "archive"
	ActionDelete   Action = "delete"
	ActionKeep     Action = "keep"
	ActionUndoKeep Action = "undo_keep"
)

// ParseAction maps a user-supplied name to an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")); a {
	case ActionArchive, ActionDelete, ActionKeep, ActionUndoKeep:
		return a, nil
	default:
		return "", errors.NewValidationError("action", s, "unknown review action")
	}
}

// target is the review status each action moves a record to.
func (a Action) target() features.ReviewStatus {
	switch a {
	case ActionArchive:
		return features.ReviewArchived
	case ActionDelete:
		return features.ReviewDeleted
	case ActionKeep:
		return features.ReviewKept
	default:
		return features.ReviewPending
	}
}

// Store is the persistence the action layer writes through.
type Store interface {
	Get(ctx context.Context, id string) (features.FeatureRecord, error)
	UpdateReview(ctx context.Context, id string, update features.ReviewUpdate) error
	Delete(ctx context.Context, id string, expected features.ReviewStatus) error
}

// Service applies review actions against a Store.
type Service struct {
	store  Store
	cfg    Config
	now    func() time.Time
	hooks  []Hook
	guards []Guard
}

// Hook observes every attempted item, successful or not.
type Hook func(ctx context.Context, item ItemResult)

// Guard rejects a record before any write when it returns an error.
type Guard func(ctx context.Context, rec features.FeatureRecord) error

// New creates a Service.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.NewValidationError("store", nil, "cannot be nil")
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, cfg: o.config, now: o.now, hooks: o.hooks, guards: o.guards}, nil
}

// Config returns the service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Archive moves a pending record to archived.
func (s *Service) Archive(ctx context.Context, id string) error {
	return s.single(ctx, ActionArchive, id, "")
}

// Delete removes a pending record from the store.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.single(ctx, ActionDelete, id, "")
}

// MarkKept moves a pending record to kept with optional notes.
func (s *Service) MarkKept(ctx context.Context, id, notes string) error {
	return s.single(ctx, ActionKeep, id, notes)
}

// UndoKeep returns a kept record to pending and clears its review fields.
func (s *Service) UndoKeep(ctx context.Context, id string) error {
	return s.single(ctx, ActionUndoKeep, id, "")
}

// Apply runs a single action by name. Notes are used by keep only.
func (s *Service) Apply(ctx context.Context, action Action, id, notes string) error {
	return s.single(ctx, action, id, notes)
}

func (s *Service) single(ctx context.Context, action Action, id, notes string) error {
	reviewer, err := s.reviewer(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return errors.NewValidationError("id", id, "cannot be empty")
	}
	item := s.apply(ctx, action, id, notes, reviewer)
	return item.Err
}

// apply performs one action and reports the outcome to hooks.
func (s *Service) apply(ctx context.Context, action Action, id, notes, reviewer string) ItemResult {
	ctx = logging.WithFeature(logging.WithOperation(ctx, string(action)), id)
	ctx = logging.WithReviewer(ctx, reviewer)
	logger := logging.FromContext(ctx)

	item := ItemResult{ID: id, Action: action, To: action.target()}
	err := s.write(ctx, action, id, notes, reviewer, &item)
	if err != nil {
		item.Outcome = OutcomeFailed
		item.Err = errors.WrapMutation(string(action), id, err)
		item.Message = err.Error()
		logger.Warn().Err(err).Msg("Review action failed")
	} else {
		item.Outcome = OutcomeSucceeded
		logger.Info().Str("from", string(item.From)).Str("to", string(item.To)).Msg("Review action applied")
	}

	for _, h := range s.hooks {
		h(ctx, item)
	}
	return item
}

func (s *Service) write(ctx context.Context, action Action, id, notes, reviewer string, item *ItemResult) error {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	item.FeatureCode = rec.FeatureCode

	current := rec.Review.Status
	if current == "" {
		current = features.ReviewPending
	}
	item.From = current

	for _, guard := range s.guards {
		if err := guard(ctx, rec); err != nil {
			return err
		}
	}

	target := action.target()
	if err := current.Transition(target); err != nil {
		return err
	}

	if action == ActionDelete {
		return s.store.Delete(ctx, id, current)
	}

	update := features.ReviewUpdate{Expected: current, Status: target}
	if action != ActionUndoKeep {
		at := utc.New(s.now())
		update.ReviewedBy = reviewer
		update.ReviewedAt = &at
		update.Notes = notes
	}
	return s.store.UpdateReview(ctx, id, update)
}

func (s *Service) reviewer(ctx context.Context) (string, error) {
	if r := ReviewerFrom(ctx); r != "" {
		return r, nil
	}
	if s.cfg.DefaultReviewer != "" {
		return s.cfg.DefaultReviewer, nil
	}
	return "", errors.NewValidationError("reviewer", "", "a reviewer identity is required")
}

// ConfirmationToken is the text a caller must echo back to delete n records
// in one bulk request above the confirmation threshold.
func ConfirmationToken(n int) string {
	return fmt.Sprintf("DELETE %d", n)
}

type reviewerKey struct{}

// WithReviewer attaches the acting reviewer to ctx.
func WithReviewer(ctx context.Context, reviewer string) context.Context {
	return context.WithValue(ctx, reviewerKey{}, strings.TrimSpace(reviewer))
}

// ReviewerFrom returns the reviewer attached to ctx, if any.
func ReviewerFrom(ctx context.Context) string {
	r, _ := ctx.Value(reviewerKey{}).(string)
	return r
}
