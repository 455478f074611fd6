package approval

import (
	"github.com/procurecart/procurecart-backend/pkg/enums"
)

// userTransitions is the set of status changes a user may request. The
// terminal orderPlaced transition is absent on purpose: it is driven only by
// the order-created event consumer.
var userTransitions = map[enums.SavedCartStatus][]enums.SavedCartStatus{
	enums.SavedCartStatusOpen:     {enums.SavedCartStatusPending},
	enums.SavedCartStatusPending:  {enums.SavedCartStatusApproved, enums.SavedCartStatusDenied},
	enums.SavedCartStatusApproved: {enums.SavedCartStatusPending},
	enums.SavedCartStatusDenied:   {enums.SavedCartStatusPending},
}

// reviewTargets are transitions reserved for approvers: the decision pair
// out of pending plus the reopen back into it.
var reviewTargets = map[enums.SavedCartStatus]struct{}{
	enums.SavedCartStatusApproved: {},
	enums.SavedCartStatusDenied:   {},
}

// CanTransition reports whether a user-driven move from one status to
// another is allowed.
func CanTransition(from, to enums.SavedCartStatus) bool {
	for _, candidate := range userTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// RequiresApprover reports whether the transition is a review decision that
// only an approver may make. Submitting for review (open to pending) stays
// open to members; deciding and reopening do not.
func RequiresApprover(from, to enums.SavedCartStatus) bool {
	if _, ok := reviewTargets[to]; ok {
		return true
	}
	// Reopening a decided record for re-review is also a reviewer move.
	if to == enums.SavedCartStatusPending && from != enums.SavedCartStatusOpen {
		return true
	}
	return false
}
