package classifications

import (
	"errors"
	"net/http"
)

// Domain errors for classification operations.
var (
	ErrNotFound       = errors.New("classification not found")
	ErrDuplicate      = errors.New("classification already exists")
	ErrInvalidCommand = errors.New("validated_by is required")
	ErrInvalidRange   = errors.New("days must be between 1 and 365")
)

func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidCommand) || errors.Is(err, ErrInvalidRange) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
