package credentials

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound = errors.New("access credential not found")
	ErrExpired  = errors.New("access credential has expired")
	ErrInvalid  = errors.New("invalid credential request")
)

// MapHTTPStatus translates credential domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrExpired) {
		return http.StatusGone
	}
	if errors.Is(err, ErrInvalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
