package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/inklane/countersign/internal/credentials"
	"github.com/inklane/countersign/internal/identities"
	"github.com/inklane/countersign/internal/workflows"
	"github.com/inklane/countersign/pkg/mailer"
	"github.com/inklane/countersign/pkg/repository"
	"github.com/inklane/countersign/pkg/stamper"
)

type service struct {
	db            *sql.DB
	workflows     workflows.System
	identities    identities.System
	credentials   credentials.System
	stamper       stamper.System
	mail          mailer.System
	logger        *slog.Logger
	credentialTTL time.Duration
	frontendURL   string
}

// New creates a review orchestration service implementing the System interface.
func New(
	db *sql.DB,
	wf workflows.System,
	ids identities.System,
	creds credentials.System,
	renderer stamper.System,
	mail mailer.System,
	logger *slog.Logger,
	credentialTTL time.Duration,
	frontendURL string,
) System {
	return &service{
		db:            db,
		workflows:     wf,
		identities:    ids,
		credentials:   creds,
		stamper:       renderer,
		mail:          mail,
		logger:        logger.With("system", "review"),
		credentialTTL: credentialTTL,
		frontendURL:   frontendURL,
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

// transition performs the precondition-guarded status update. The WHERE
// clause on the expected status serializes concurrent approvals: exactly one
// caller advances the workflow, losers observe sql.ErrNoRows and surface a
// state conflict carrying the status the winner left behind.
func (s *service) transition(
	ctx context.Context,
	tx *sql.Tx,
	id uuid.UUID,
	from, to workflows.Status,
	set string,
	args ...any,
) error {
	query := fmt.Sprintf(`
		UPDATE workflows
		SET status = $1, updated_at = NOW()%s
		WHERE id = $2 AND status = $3`, set)

	err := repository.ExecExpectOne(ctx, tx, query, append([]any{int(to), id, int(from)}, args...)...)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("transition workflow: %w", err)
	}

	current, findErr := s.workflows.Find(ctx, id)
	if findErr != nil {
		return findErr
	}
	return &workflows.StateConflictError{Current: current.Status, Expected: from}
}

// runEffects executes the non-critical effects of an approval concurrently
// and reports each outcome. Effect failures are logged and recorded, never
// returned.
func (s *service) runEffects(ctx context.Context, workflowID uuid.UUID, effects []namedEffect) []Effect {
	results := make([]Effect, len(effects))

	var g errgroup.Group
	for i, effect := range effects {
		g.Go(func() error {
			results[i] = Effect{Name: effect.name, OK: true}
			if err := effect.run(ctx); err != nil {
				s.logger.Warn("review effect failed",
					"effect", effect.name,
					"workflow", workflowID,
					"error", err,
				)
				results[i] = Effect{Name: effect.name, OK: false, Error: err.Error()}
			}
			return nil
		})
	}
	g.Wait()

	return results
}

type namedEffect struct {
	name string
	run  func(ctx context.Context) error
}
