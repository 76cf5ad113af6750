// Package review orchestrates the two-party approval pipeline: internal
// approval by an assigned reviewer, credential issuance, and external
// approval by the reviewer named on the workflow. Each approval commits its
// persisted effects as a single transaction; stamp rendering and email
// notification run afterward as best-effort effects reported on the
// Receipt.
package review

import (
	"context"

	"github.com/google/uuid"

	"github.com/inklane/countersign/internal/workflows"
)

// System defines the public contract for review orchestration.
type System interface {
	Handler() *Handler

	// ApproveInternal records the internal approval of a workflow by the
	// given actor: a stamp, a fresh external access credential, and the
	// transition to PendingExternalReview, committed atomically. The
	// notification email and visual stamp are best-effort.
	ApproveInternal(ctx context.Context, actorID, workflowID uuid.UUID, stamp StampCommand) (*Receipt, error)

	// ApproveExternal completes a workflow through a one-time access token.
	// The optional workflow id may only name a workflow scoped to the same
	// external reviewer as the token's own. The optional stamp is recorded
	// anonymously.
	ApproveExternal(ctx context.Context, token string, workflowID *uuid.UUID, stamp *StampCommand) (*Receipt, error)

	// ApproveExternalBySession completes a workflow for an authenticated
	// external reviewer. The workflow's external reviewer email must match
	// the session email case-insensitively.
	ApproveExternalBySession(ctx context.Context, actorID uuid.UUID, email string, workflowID uuid.UUID, stamp *StampCommand) (*Receipt, error)

	// WorkflowForToken resolves the workflow summary visible through a
	// token, enforcing the reviewer scoping invariant when a specific
	// workflow is requested.
	WorkflowForToken(ctx context.Context, token string, workflowID *uuid.UUID) (*workflows.Summary, error)

	// WorkflowsForToken lists the workflow summaries scoped to the token's
	// external reviewer.
	WorkflowsForToken(ctx context.Context, token string) ([]workflows.Summary, error)

	// ExternalUserForToken identifies the external reviewer behind a token,
	// letting anonymous token holders learn who they are acting as.
	ExternalUserForToken(ctx context.Context, token string) (*ExternalUser, error)

	// ValidatePasscode checks a passcode against the token's credential,
	// consuming the credential on success. The result is advisory; approval
	// does not require it.
	ValidatePasscode(ctx context.Context, token, passcode string) (bool, error)
}

// ExternalUser identifies the reviewer behind a one-time access token.
type ExternalUser struct {
	Email string `json:"email"`
	Valid bool   `json:"valid"`
}

// StampCommand is the caller-supplied placement of an approval stamp.
type StampCommand struct {
	Label      string  `json:"label"`
	PageNumber int     `json:"page_number"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}
