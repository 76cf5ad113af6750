package workflows

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for workflow operations.
var (
	ErrNotFound       = errors.New("workflow not found")
	ErrDuplicate      = errors.New("workflow already exists")
	ErrInvalidRequest = errors.New("invalid workflow request")
	ErrReadOnly       = errors.New("workflow is completed and its document is read-only")

	// ErrStateConflict is the sentinel matched by errors.Is for any
	// StateConflictError. Callers needing the current status should
	// errors.As into StateConflictError.
	ErrStateConflict = errors.New("workflow state conflict")
)

// StateConflictError reports a transition attempted against a workflow whose
// current status does not satisfy the precondition. It carries the current
// status for caller diagnostics.
type StateConflictError struct {
	Current  Status
	Expected Status
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf(
		"workflow is not in %s state, current status: %s",
		e.Expected, e.Current,
	)
}

// Is matches StateConflictError against the ErrStateConflict sentinel.
func (e *StateConflictError) Is(target error) bool {
	return target == ErrStateConflict
}

// MapHTTPStatus maps workflow domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrStateConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrReadOnly) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
