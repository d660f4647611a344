package actions

import (
	"context"
	stderrors "errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/logging"
)

// Outcome is the per-item result of a bulk action.
type Outcome string

// Item outcomes. Skipped items were never attempted because the context
// ended first; they keep their previous review status.
const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// ItemResult reports what happened to one record.
type ItemResult struct {
	ID          string                `json:"id"`
	FeatureCode string                `json:"featureCode,omitempty"`
	Action      Action                `json:"action"`
	Outcome     Outcome               `json:"outcome"`
	From        features.ReviewStatus `json:"from,omitempty"`
	To          features.ReviewStatus `json:"to"`
	Message     string                `json:"error,omitempty"`
	Err         error                 `json:"-"`
}

// BulkResult holds one ItemResult per requested ID, in request order.
type BulkResult struct {
	Action Action       `json:"action"`
	Items  []ItemResult `json:"items"`
}

// Succeeded returns the IDs that were applied.
func (b *BulkResult) Succeeded() []string {
	return b.ids(OutcomeSucceeded)
}

// Skipped returns the IDs that were never attempted.
func (b *BulkResult) Skipped() []string {
	return b.ids(OutcomeSkipped)
}

// Failed returns the items that were attempted and failed.
func (b *BulkResult) Failed() []ItemResult {
	var out []ItemResult
	for _, it := range b.Items {
		if it.Outcome == OutcomeFailed {
			out = append(out, it)
		}
	}
	return out
}

// Err joins the error of every failed or skipped item, or returns nil when
// all succeeded.
func (b *BulkResult) Err() error {
	var errs []error
	for _, it := range b.Items {
		if it.Err != nil {
			errs = append(errs, it.Err)
		}
	}
	return stderrors.Join(errs...)
}

func (b *BulkResult) ids(o Outcome) []string {
	var out []string
	for _, it := range b.Items {
		if it.Outcome == o {
			out = append(out, it.ID)
		}
	}
	return out
}

// ArchiveMany archives each record independently.
func (s *Service) ArchiveMany(ctx context.Context, ids []string) (*BulkResult, error) {
	return s.bulk(ctx, ActionArchive, ids, "")
}

// MarkManyKept marks each record kept with the same notes.
func (s *Service) MarkManyKept(ctx context.Context, ids []string, notes string) (*BulkResult, error) {
	return s.bulk(ctx, ActionKeep, ids, notes)
}

// DeleteMany deletes each record independently. Requests larger than the
// confirmation threshold must carry ConfirmationToken(len(ids)) or nothing
// is attempted.
func (s *Service) DeleteMany(ctx context.Context, ids []string, confirm string) (*BulkResult, error) {
	unique := dedupe(ids)
	if n := len(unique); n > s.cfg.ConfirmThreshold && confirm != ConfirmationToken(n) {
		return nil, errors.NewValidationError("confirm", confirm,
			fmt.Sprintf("deleting %d records requires the confirmation token %q", n, ConfirmationToken(n)))
	}
	return s.bulk(ctx, ActionDelete, unique, "")
}

// ApplyMany runs a bulk action by name. Delete requires confirm as in
// DeleteMany; undo-keep is applied item by item like the others.
func (s *Service) ApplyMany(ctx context.Context, action Action, ids []string, notes, confirm string) (*BulkResult, error) {
	if action == ActionDelete {
		return s.DeleteMany(ctx, ids, confirm)
	}
	return s.bulk(ctx, action, ids, notes)
}

func (s *Service) bulk(ctx context.Context, action Action, ids []string, notes string) (*BulkResult, error) {
	reviewer, err := s.reviewer(ctx)
	if err != nil {
		return nil, err
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, errors.NewValidationError("ids", ids, "at least one record ID is required")
	}

	result := &BulkResult{Action: action, Items: make([]ItemResult, len(ids))}

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				result.Items[i] = ItemResult{
					ID:      id,
					Action:  action,
					Outcome: OutcomeSkipped,
					To:      action.target(),
					Message: err.Error(),
					Err:     fmt.Errorf("%w: %w", errors.ErrCanceled, err),
				}
				return nil
			}
			result.Items[i] = s.apply(ctx, action, id, notes, reviewer)
			return nil
		})
	}
	_ = g.Wait()

	logging.FromContext(ctx).Info().
		Str("action", string(action)).
		Int("requested", len(ids)).
		Int("succeeded", len(result.Succeeded())).
		Int("failed", len(result.Failed())).
		Int("skipped", len(result.Skipped())).
		Msg("Bulk review action finished")
	return result, nil
}

// dedupe drops blank and repeated IDs, keeping first occurrence order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
