package review

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/inklane/countersign/internal/credentials"
	"github.com/inklane/countersign/internal/identities"
	"github.com/inklane/countersign/internal/workflows"
)

var (
	// ErrUnauthorized is the sentinel matched by errors.Is for any
	// UnauthorizedError.
	ErrUnauthorized = errors.New("actor is not authorized for this review action")

	ErrForbidden      = errors.New("workflow does not belong to this reviewer")
	ErrInvalidRequest = errors.New("invalid review request")
)

// UnauthorizedError reports an internal approval attempted by an actor who
// is neither the assigned reviewer, an admin, nor an internal reviewer. It
// names the assigned reviewer so callers can diagnose misrouted requests.
type UnauthorizedError struct {
	AssignedReviewerID uuid.UUID
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf(
		"actor is not authorized to approve this workflow; assigned reviewer: %s",
		e.AssignedReviewerID,
	)
}

// Is matches UnauthorizedError against the ErrUnauthorized sentinel.
func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// MapHTTPStatus translates review errors, including the wrapped workflow,
// credential, and identity errors an orchestration can surface, to HTTP
// status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	if errors.Is(err, credentials.ErrNotFound) || errors.Is(err, credentials.ErrExpired) {
		return credentials.MapHTTPStatus(err)
	}
	if errors.Is(err, identities.ErrNotFound) {
		return http.StatusNotFound
	}
	if status := workflows.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusInternalServerError
}
