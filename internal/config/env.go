package config

import (
	"os"
	"strconv"
	"time"
)

// Each env helper leaves dst untouched when the variable is unset or does
// not parse.

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
		*dst = n
	}
}

func envFloat(name string, dst *float64) {
	if f, err := strconv.ParseFloat(os.Getenv(name), 64); err == nil {
		*dst = f
	}
}

func envBool(name string, dst *bool) {
	if b, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		*dst = b
	}
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func overlayFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// parseDuration returns d parsed, or zero for an empty or malformed value.
// Malformed values are rejected earlier by validate.
func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func validateDurations(fields map[string]string) error {
	for name, v := range fields {
		if _, err := time.ParseDuration(v); err != nil {
			return &durationError{field: name, err: err}
		}
	}
	return nil
}

type durationError struct {
	field string
	err   error
}

func (e *durationError) Error() string { return "invalid " + e.field + ": " + e.err.Error() }
func (e *durationError) Unwrap() error { return e.err }
