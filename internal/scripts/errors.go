package scripts

import (
	"errors"
	"net/http"
)

// Domain errors for script operations.
var (
	ErrNotFound         = errors.New("script not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrMismatch         = errors.New("script does not belong to question")
	ErrDuplicate        = errors.New("script already exists")
	ErrInvalidRequest   = errors.New("invalid script request")
)

// MapHTTPStatus maps script domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMismatch), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
