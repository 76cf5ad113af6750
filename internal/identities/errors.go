package identities

import (
	"errors"
	"net/http"
)

// Domain errors for identity operations.
var (
	ErrNotFound       = errors.New("identity not found")
	ErrDuplicate      = errors.New("identity already exists")
	ErrInUse          = errors.New("identity is referenced by existing workflows")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidRequest = errors.New("invalid identity request")
	ErrUnauthorized   = errors.New("authentication required")
	ErrForbidden      = errors.New("insufficient permissions")
)

// MapHTTPStatus maps identity domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrInUse) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidRole) || errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
