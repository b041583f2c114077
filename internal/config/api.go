package config

import (
	"fmt"

	"github.com/JaimeStill/callbook/pkg/formatting"
	"github.com/JaimeStill/callbook/pkg/middleware"
	"github.com/JaimeStill/callbook/pkg/pagination"
)

const (
	EnvAPIBasePath      = "CALLBOOK_API_BASE_PATH"
	EnvAPIMaxUploadSize = "CALLBOOK_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CALLBOOK_CORS_ENABLED",
	Origins:          "CALLBOOK_CORS_ORIGINS",
	AllowedMethods:   "CALLBOOK_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CALLBOOK_CORS_ALLOWED_HEADERS",
	AllowCredentials: "CALLBOOK_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CALLBOOK_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "CALLBOOK_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "CALLBOOK_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings. MaxUploadSize
// bounds a single transcription upload, e.g. "10MB".
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes is only meaningful after Finalize has validated the size.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxUploadSize)
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}
	envString(EnvAPIBasePath, &c.BasePath)
	envString(EnvAPIMaxUploadSize, &c.MaxUploadSize)

	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	overlayString(&c.BasePath, overlay.BasePath)
	overlayString(&c.MaxUploadSize, overlay.MaxUploadSize)
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}
