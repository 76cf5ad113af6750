package review

import (
	"github.com/inklane/countersign/internal/identities"
	"github.com/inklane/countersign/internal/workflows"
)

// AuthorizeInternal decides whether an actor may internally approve a
// workflow. The assigned reviewer and admins approve in place; any other
// internal reviewer is allowed but the workflow is silently reassigned to
// them. Everyone else is rejected with an error naming the assigned
// reviewer.
func AuthorizeInternal(actor *identities.Identity, w *workflows.Workflow) (reassign bool, err error) {
	switch {
	case actor.ID == w.InternalReviewerID:
		return false, nil
	case actor.Role == identities.RoleAdmin:
		return false, nil
	case actor.Role == identities.RoleInternal:
		return true, nil
	default:
		return false, &UnauthorizedError{AssignedReviewerID: w.InternalReviewerID}
	}
}
