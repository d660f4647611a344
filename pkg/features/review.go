package features

import (
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/utc"
)

// ReviewStatus is the reviewer lifecycle state of an orphaned record.
type ReviewStatus string

// Review states.
const (
	ReviewPending  ReviewStatus = "pending"
	ReviewKept     ReviewStatus = "kept"
	ReviewArchived ReviewStatus = "archived"
	ReviewDeleted  ReviewStatus = "deleted"
)

// ReviewStatuses lists every review state in display order.
var ReviewStatuses = []ReviewStatus{ReviewPending, ReviewKept, ReviewArchived, ReviewDeleted}

// transitions is the complete set of legal review moves. Archived and
// deleted are terminal.
var transitions = map[ReviewStatus][]ReviewStatus{
	ReviewPending: {ReviewKept, ReviewArchived, ReviewDeleted},
	ReviewKept:    {ReviewPending},
}

// ParseReviewStatus maps a stored value to a ReviewStatus. Empty values are
// pending; anything else unrecognized is rejected.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	switch status := ReviewStatus(s); status {
	case "":
		return ReviewPending, nil
	case ReviewPending, ReviewKept, ReviewArchived, ReviewDeleted:
		return status, nil
	default:
		return "", errors.NewValidationError("review_status", s, "unknown review status")
	}
}

// String returns the string representation of a ReviewStatus.
func (s ReviewStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no transition leaves s.
func (s ReviewStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether moving from s to next is allowed.
func (s ReviewStatus) CanTransition(next ReviewStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates a move from s to next.
func (s ReviewStatus) Transition(next ReviewStatus) error {
	if !s.CanTransition(next) {
		return errors.NewTransitionError(string(s), string(next))
	}
	return nil
}

// ReviewUpdate is the set of review fields written by a single action.
type ReviewUpdate struct {
	// Expected is the status the record must still hold when the update
	// lands. Stores reject the write otherwise.
	Expected   ReviewStatus
	Status     ReviewStatus
	ReviewedBy string
	ReviewedAt *utc.Time
	Notes      string
}

// Apply writes the update onto a record's review block.
func (u ReviewUpdate) Apply(r *Review) {
	r.Status = u.Status
	r.ReviewedBy = u.ReviewedBy
	r.ReviewedAt = u.ReviewedAt
	r.Notes = u.Notes
}
