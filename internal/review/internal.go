package review

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/inklane/countersign/internal/credentials"
	"github.com/inklane/countersign/internal/stamps"
	"github.com/inklane/countersign/internal/workflows"
	"github.com/inklane/countersign/pkg/repository"
	"github.com/inklane/countersign/pkg/stamper"
)

type internalApproval struct {
	issued *credentials.IssuedCredential
	stamp  *stamps.Stamp
}

func (s *service) ApproveInternal(
	ctx context.Context,
	actorID, workflowID uuid.UUID,
	stamp StampCommand,
) (*Receipt, error) {
	if stamp.Label == "" || stamp.PageNumber < 1 {
		return nil, ErrInvalidRequest
	}

	workflow, err := s.workflows.Find(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	actor, err := s.identities.Find(ctx, actorID)
	if err != nil {
		return nil, err
	}

	reassign, err := AuthorizeInternal(actor, workflow)
	if err != nil {
		return nil, err
	}

	if workflow.Status != workflows.StatusPendingInternalReview {
		return nil, &workflows.StateConflictError{
			Current:  workflow.Status,
			Expected: workflows.StatusPendingInternalReview,
		}
	}

	reviewerID := workflow.InternalReviewerID
	if reassign {
		reviewerID = actor.ID
	}

	approval, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (*internalApproval, error) {
		recorded, err := stamps.Insert(ctx, tx, stamps.CreateCommand{
			WorkflowID: workflow.ID,
			UserID:     &actor.ID,
			Label:      stamp.Label,
			PageNumber: stamp.PageNumber,
			X:          stamp.X,
			Y:          stamp.Y,
		})
		if err != nil {
			return nil, err
		}

		_, issued, err := s.credentials.Issue(ctx, tx, workflow.ID, s.credentialTTL)
		if err != nil {
			return nil, err
		}

		err = s.transition(ctx, tx,
			workflow.ID,
			workflows.StatusPendingInternalReview,
			workflows.StatusPendingExternalReview,
			", internal_reviewer_id = $4, internal_approved_at = NOW()",
			reviewerID,
		)
		if err != nil {
			return nil, err
		}

		return &internalApproval{issued: issued, stamp: recorded}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workflow internally approved",
		"workflow", workflow.ID,
		"actor", actor.ID,
		"reassigned", reassign,
	)

	updated, err := s.workflows.Find(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}

	subject, body := buildExternalReviewEmail(s.frontendURL, updated, approval.issued)

	effects := s.runEffects(ctx, workflow.ID, []namedEffect{
		{name: "render-stamp", run: func(ctx context.Context) error {
			return s.stamper.Apply(ctx, updated.StorageKey, stamper.Stamp{
				Label: stamp.Label,
				Page:  stamp.PageNumber,
				X:     stamp.X,
				Y:     stamp.Y,
			})
		}},
		{name: "notify-external-reviewer", run: func(ctx context.Context) error {
			return s.mail.Send(ctx, updated.ExternalReviewerEmail, subject, body)
		}},
	})

	return &Receipt{Workflow: updated, Effects: effects}, nil
}
