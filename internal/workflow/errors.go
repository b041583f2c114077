package workflow

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/callbook/internal/documents"
	"github.com/JaimeStill/callbook/internal/scripts"
)

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, ErrEmbeddingFailed):
		return http.StatusBadGateway
	case errors.Is(err, documents.ErrNotFound):
		return http.StatusNotFound
	}
	if status := scripts.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusInternalServerError
}
