package credentials

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inklane/countersign/pkg/repository"
)

const credentialColumns = `id, workflow_id, token, otp_hash, expires_at, used, used_at, created_at`

// Issue mints a credential for a workflow within the caller's transaction
// and returns both the persisted row and the secrets for one-time delivery.
func Issue(ctx context.Context, q repository.Querier, workflowID uuid.UUID, ttl time.Duration) (*Credential, *IssuedCredential, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, nil, err
	}

	passcode, err := GeneratePasscode()
	if err != nil {
		return nil, nil, err
	}

	query := `
		INSERT INTO workflow_external_access(id, workflow_id, token, otp_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + credentialColumns

	expires := time.Now().UTC().Add(ttl)
	args := []any{uuid.New(), workflowID, token, HashPasscode(passcode), expires}

	c, err := repository.QueryOne(ctx, q, query, args, scanCredential)
	if err != nil {
		return nil, nil, fmt.Errorf("insert credential: %w", err)
	}

	issued := &IssuedCredential{
		Token:     token,
		Passcode:  passcode,
		ExpiresAt: c.ExpiresAt,
	}
	return &c, issued, nil
}

// FindByToken resolves a credential by its token, returning ErrExpired once
// the expiry has passed regardless of the passcode's state.
func FindByToken(ctx context.Context, q repository.Querier, token string) (*Credential, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	query := `
		SELECT ` + credentialColumns + `
		FROM workflow_external_access
		WHERE token = $1`

	c, err := repository.QueryOne(ctx, q, query, []any{token}, scanCredential)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query credential: %w", err)
	}

	if c.Expired(time.Now().UTC()) {
		return nil, ErrExpired
	}
	return &c, nil
}

// ValidatePasscode checks a passcode against an unused, unexpired
// credential and marks the credential used on success. A mismatch reports
// false without error; validation is advisory and callers decide what a
// failed check means.
func ValidatePasscode(ctx context.Context, db *sql.DB, token, passcode string) (bool, error) {
	return repository.WithTx(ctx, db, func(tx *sql.Tx) (bool, error) {
		c, err := FindByToken(ctx, tx, token)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
				return false, nil
			}
			return false, err
		}
		if c.Used {
			return false, nil
		}

		supplied := HashPasscode(passcode)
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(c.OTPHash)) != 1 {
			return false, nil
		}

		mark := `
			UPDATE workflow_external_access
			SET used = TRUE, used_at = NOW()
			WHERE id = $1 AND used = FALSE`

		if err := repository.ExecExpectOne(ctx, tx, mark, c.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return false, nil
			}
			return false, fmt.Errorf("mark credential used: %w", err)
		}
		return true, nil
	})
}

func scanCredential(s repository.Scanner) (Credential, error) {
	var c Credential
	err := s.Scan(
		&c.ID,
		&c.WorkflowID,
		&c.Token,
		&c.OTPHash,
		&c.ExpiresAt,
		&c.Used,
		&c.UsedAt,
		&c.CreatedAt,
	)
	return c, err
}
