package credentials

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/inklane/countersign/pkg/repository"
)

// System defines the public contract for credential operations.
type System interface {
	// Issue mints a credential for a workflow within the caller's
	// transaction and returns both the persisted row and the secrets for
	// one-time delivery.
	Issue(ctx context.Context, q repository.Querier, workflowID uuid.UUID, ttl time.Duration) (*Credential, *IssuedCredential, error)

	// FindByToken resolves a credential by its token, returning ErrExpired
	// once the expiry has passed.
	FindByToken(ctx context.Context, token string) (*Credential, error)

	// ValidatePasscode checks a passcode against an unused, unexpired
	// credential, consuming the credential on success. A mismatch reports
	// false without error.
	ValidatePasscode(ctx context.Context, token, passcode string) (bool, error)
}

type repo struct {
	db *sql.DB
}

// New creates a credential system backed by the given database.
func New(db *sql.DB) System {
	return &repo{db: db}
}

func (r *repo) Issue(ctx context.Context, q repository.Querier, workflowID uuid.UUID, ttl time.Duration) (*Credential, *IssuedCredential, error) {
	return Issue(ctx, q, workflowID, ttl)
}

func (r *repo) FindByToken(ctx context.Context, token string) (*Credential, error) {
	return FindByToken(ctx, r.db, token)
}

func (r *repo) ValidatePasscode(ctx context.Context, token, passcode string) (bool, error) {
	return ValidatePasscode(ctx, r.db, token, passcode)
}
