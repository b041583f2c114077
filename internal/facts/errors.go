package facts

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound        = errors.New("fact not found")
	ErrDuplicate       = errors.New("fact already exists")
	ErrInvalidCategory = errors.New("invalid fact category")
	ErrEmptyValue      = errors.New("fact value is empty")
)

func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrEmptyValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
