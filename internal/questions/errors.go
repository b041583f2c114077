package questions

import (
	"errors"
	"net/http"
)

// Domain errors for question operations.
var (
	ErrNotFound       = errors.New("question not found")
	ErrDuplicate      = errors.New("question already exists")
	ErrEmptyText      = errors.New("question text is empty")
	ErrInvalidRequest = errors.New("invalid question request")
)

// MapHTTPStatus maps question domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrEmptyText) || errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
