package moderation

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/callbook/internal/questions"
)

// Domain errors for moderation operations.
var (
	ErrRuleNotFound   = errors.New("filter rule not found")
	ErrDuplicateRule  = errors.New("filter rule already exists")
	ErrInvalidRule    = errors.New("invalid filter rule")
	ErrInvalidAction  = errors.New("invalid moderation action")
	ErrInvalidRequest = errors.New("invalid moderation request")
)

// MapHTTPStatus maps moderation and question errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrRuleNotFound) || errors.Is(err, questions.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicateRule) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidRule) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, questions.ErrEmptyText) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
