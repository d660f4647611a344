package featurereg

import (
	"context"

	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/logging"
)

// Reviewer applies reviewer decisions. Every call re-runs analysis
// afterwards, even when some items failed, so Last reflects what the store
// actually holds.
type Reviewer interface {
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	MarkKept(ctx context.Context, id, notes string) error
	UndoKeep(ctx context.Context, id string) error

	ArchiveMany(ctx context.Context, ids []string) (*actions.BulkResult, error)
	DeleteMany(ctx context.Context, ids []string, confirm string) (*actions.BulkResult, error)
	MarkManyKept(ctx context.Context, ids []string, notes string) (*actions.BulkResult, error)

	// Apply and ApplyMany dispatch by action name.
	Apply(ctx context.Context, action actions.Action, id, notes string) error
	ApplyMany(ctx context.Context, action actions.Action, ids []string, notes, confirm string) (*actions.BulkResult, error)

	// ActionConfig returns the review action configuration.
	ActionConfig() actions.Config
}

// Archive archives one pending record.
func (c *client) Archive(ctx context.Context, id string) error {
	return c.Apply(ctx, actions.ActionArchive, id, "")
}

// Delete deletes one pending record.
func (c *client) Delete(ctx context.Context, id string) error {
	return c.Apply(ctx, actions.ActionDelete, id, "")
}

// MarkKept keeps one pending record.
func (c *client) MarkKept(ctx context.Context, id, notes string) error {
	return c.Apply(ctx, actions.ActionKeep, id, notes)
}

// UndoKeep returns one kept record to pending.
func (c *client) UndoKeep(ctx context.Context, id string) error {
	return c.Apply(ctx, actions.ActionUndoKeep, id, "")
}

// ArchiveMany archives each record independently.
func (c *client) ArchiveMany(ctx context.Context, ids []string) (*actions.BulkResult, error) {
	return c.ApplyMany(ctx, actions.ActionArchive, ids, "", "")
}

// DeleteMany deletes each record independently.
func (c *client) DeleteMany(ctx context.Context, ids []string, confirm string) (*actions.BulkResult, error) {
	return c.ApplyMany(ctx, actions.ActionDelete, ids, "", confirm)
}

// MarkManyKept keeps each record independently.
func (c *client) MarkManyKept(ctx context.Context, ids []string, notes string) (*actions.BulkResult, error) {
	return c.ApplyMany(ctx, actions.ActionKeep, ids, notes, "")
}

// Apply runs one action and refreshes the analysis.
func (c *client) Apply(ctx context.Context, action actions.Action, id, notes string) error {
	err := c.actions.Apply(ctx, action, id, notes)
	if err == nil || !isRejected(err) {
		c.refresh(ctx)
	}
	return err
}

// ApplyMany runs a bulk action and refreshes the analysis unless the
// request was rejected before any item was attempted.
func (c *client) ApplyMany(ctx context.Context, action actions.Action, ids []string, notes, confirm string) (*actions.BulkResult, error) {
	res, err := c.actions.ApplyMany(ctx, action, ids, notes, confirm)
	if err != nil {
		return nil, err
	}
	c.refresh(ctx)
	return res, nil
}

// ActionConfig returns the review action configuration.
func (c *client) ActionConfig() actions.Config {
	return c.actions.Config()
}

// refresh re-runs analysis after a mutation. A failed refresh leaves the
// previous result in place and is only logged; the mutation outcome stands.
func (c *client) refresh(ctx context.Context) {
	if _, err := c.Analyze(context.WithoutCancel(ctx)); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Re-analysis after review action failed")
	}
}

// isRejected reports whether an action was refused before touching the
// store.
func isRejected(err error) bool {
	return errors.IsValidationError(err) && !errors.IsMutationError(err)
}
