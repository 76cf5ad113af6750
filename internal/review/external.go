package review

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/inklane/countersign/internal/stamps"
	"github.com/inklane/countersign/internal/workflows"
	"github.com/inklane/countersign/pkg/repository"
	"github.com/inklane/countersign/pkg/stamper"
)

// resolveForToken resolves the workflow visible through a token. Without a
// requested id the credential's own workflow is returned. A requested id is
// only honored when its external reviewer email exactly matches the bound
// workflow's; anything else reports not-found so a token holder learns
// nothing about other reviewers' workflows.
func (s *service) resolveForToken(ctx context.Context, token string, requested *uuid.UUID) (*workflows.Workflow, error) {
	credential, err := s.credentials.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	bound, err := s.workflows.Find(ctx, credential.WorkflowID)
	if err != nil {
		return nil, err
	}

	if requested == nil || *requested == bound.ID {
		return bound, nil
	}

	target, err := s.workflows.Find(ctx, *requested)
	if err != nil {
		return nil, err
	}
	if target.ExternalReviewerEmail != bound.ExternalReviewerEmail {
		return nil, workflows.ErrNotFound
	}
	return target, nil
}

func (s *service) ApproveExternal(
	ctx context.Context,
	token string,
	workflowID *uuid.UUID,
	stamp *StampCommand,
) (*Receipt, error) {
	workflow, err := s.resolveForToken(ctx, token, workflowID)
	if err != nil {
		return nil, err
	}

	return s.completeExternal(ctx, workflow, nil, stamp)
}

func (s *service) ApproveExternalBySession(
	ctx context.Context,
	actorID uuid.UUID,
	email string,
	workflowID uuid.UUID,
	stamp *StampCommand,
) (*Receipt, error) {
	workflow, err := s.workflows.Find(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(workflow.ExternalReviewerEmail, email) {
		return nil, ErrForbidden
	}

	return s.completeExternal(ctx, workflow, &actorID, stamp)
}

// completeExternal records the terminal transition shared by the token and
// session approval paths. The stamp actor is nil for anonymous token-based
// approvals.
func (s *service) completeExternal(
	ctx context.Context,
	workflow *workflows.Workflow,
	actorID *uuid.UUID,
	stamp *StampCommand,
) (*Receipt, error) {
	if stamp != nil && (stamp.Label == "" || stamp.PageNumber < 1) {
		return nil, ErrInvalidRequest
	}

	if workflow.Status != workflows.StatusPendingExternalReview {
		return nil, &workflows.StateConflictError{
			Current:  workflow.Status,
			Expected: workflows.StatusPendingExternalReview,
		}
	}

	_, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (*stamps.Stamp, error) {
		var recorded *stamps.Stamp
		if stamp != nil {
			var err error
			recorded, err = stamps.Insert(ctx, tx, stamps.CreateCommand{
				WorkflowID: workflow.ID,
				UserID:     actorID,
				Label:      stamp.Label,
				PageNumber: stamp.PageNumber,
				X:          stamp.X,
				Y:          stamp.Y,
			})
			if err != nil {
				return nil, err
			}
		}

		err := s.transition(ctx, tx,
			workflow.ID,
			workflows.StatusPendingExternalReview,
			workflows.StatusCompleted,
			", external_approved_at = NOW()",
		)
		if err != nil {
			return nil, err
		}

		return recorded, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workflow externally approved",
		"workflow", workflow.ID,
		"anonymous", actorID == nil,
	)

	updated, err := s.workflows.Find(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}

	var effects []Effect
	if stamp != nil {
		effects = s.runEffects(ctx, workflow.ID, []namedEffect{
			{name: "render-stamp", run: func(ctx context.Context) error {
				return s.stamper.Apply(ctx, updated.StorageKey, stamper.Stamp{
					Label: stamp.Label,
					Page:  stamp.PageNumber,
					X:     stamp.X,
					Y:     stamp.Y,
				})
			}},
		})
	}

	return &Receipt{Workflow: updated, Effects: effects}, nil
}

func (s *service) WorkflowForToken(ctx context.Context, token string, workflowID *uuid.UUID) (*workflows.Summary, error) {
	workflow, err := s.resolveForToken(ctx, token, workflowID)
	if err != nil {
		return nil, err
	}

	summary := s.workflows.Summarize(ctx, workflow)
	return &summary, nil
}

func (s *service) WorkflowsForToken(ctx context.Context, token string) ([]workflows.Summary, error) {
	bound, err := s.resolveForToken(ctx, token, nil)
	if err != nil {
		return nil, err
	}

	scoped, err := s.workflows.ListForExternalEmail(ctx, bound.ExternalReviewerEmail)
	if err != nil {
		return nil, err
	}

	summaries := make([]workflows.Summary, 0, len(scoped))
	for i := range scoped {
		summaries = append(summaries, s.workflows.Summarize(ctx, &scoped[i]))
	}
	return summaries, nil
}

func (s *service) ExternalUserForToken(ctx context.Context, token string) (*ExternalUser, error) {
	bound, err := s.resolveForToken(ctx, token, nil)
	if err != nil {
		return nil, err
	}

	return &ExternalUser{Email: bound.ExternalReviewerEmail, Valid: true}, nil
}

func (s *service) ValidatePasscode(ctx context.Context, token, passcode string) (bool, error) {
	if token == "" || passcode == "" {
		return false, nil
	}
	return s.credentials.ValidatePasscode(ctx, token, passcode)
}
