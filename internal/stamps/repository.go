package stamps

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/inklane/countersign/pkg/repository"
)

// ErrInvalidStamp indicates a stamp command with a missing label or an
// out-of-range page number.
var ErrInvalidStamp = errors.New("invalid stamp")

// Insert records a stamp within the caller's transaction or connection.
// Stamps are append-only; there is no update or delete path.
func Insert(ctx context.Context, q repository.Querier, cmd CreateCommand) (*Stamp, error) {
	if cmd.Label == "" || cmd.PageNumber < 1 {
		return nil, ErrInvalidStamp
	}

	query := `
		INSERT INTO workflow_stamps(id, workflow_id, user_id, label, page_number, x, y)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, workflow_id, user_id, label, page_number, x, y, applied_at`

	args := []any{
		uuid.New(),
		cmd.WorkflowID,
		cmd.UserID,
		cmd.Label,
		cmd.PageNumber,
		cmd.X,
		cmd.Y,
	}

	s, err := repository.QueryOne(ctx, q, query, args, scanStamp)
	if err != nil {
		return nil, fmt.Errorf("insert stamp: %w", err)
	}
	return &s, nil
}

// ListForWorkflow returns all stamps recorded against a workflow in
// application order.
func ListForWorkflow(ctx context.Context, q repository.Querier, workflowID uuid.UUID) ([]Stamp, error) {
	query := `
		SELECT id, workflow_id, user_id, label, page_number, x, y, applied_at
		FROM workflow_stamps
		WHERE workflow_id = $1
		ORDER BY applied_at`

	items, err := repository.QueryMany(ctx, q, query, []any{workflowID}, scanStamp)
	if err != nil {
		return nil, fmt.Errorf("query stamps: %w", err)
	}
	return items, nil
}

func scanStamp(s repository.Scanner) (Stamp, error) {
	var st Stamp
	err := s.Scan(
		&st.ID,
		&st.WorkflowID,
		&st.UserID,
		&st.Label,
		&st.PageNumber,
		&st.X,
		&st.Y,
		&st.AppliedAt,
	)
	return st, err
}
