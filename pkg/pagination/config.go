// Package pagination provides page requests, page results and their limits.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Config bounds the page sizes a listing endpoint will serve.
type Config struct {
	DefaultPageSize int `json:"default_page_size" toml:"default_page_size"`
	MaxPageSize     int `json:"max_page_size"     toml:"max_page_size"`
}

// ConfigEnv names the environment variables read by Finalize.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

func (c *Config) Finalize(env *ConfigEnv) error {
	if env != nil {
		envInt(env.DefaultPageSize, &c.DefaultPageSize)
		envInt(env.MaxPageSize, &c.MaxPageSize)
	}
	if c.DefaultPageSize == 0 {
		c.DefaultPageSize = DefaultPageSize
	}
	if c.MaxPageSize == 0 {
		c.MaxPageSize = MaxPageSize
	}
	return c.validate()
}

// Merge applies the non-zero sizes from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize != 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize != 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

func (c *Config) validate() error {
	switch {
	case c.DefaultPageSize < 1:
		return fmt.Errorf("default_page_size must be positive, got %d", c.DefaultPageSize)
	case c.MaxPageSize < 1:
		return fmt.Errorf("max_page_size must be positive, got %d", c.MaxPageSize)
	case c.DefaultPageSize > c.MaxPageSize:
		return fmt.Errorf("default_page_size (%d) exceeds max_page_size (%d)", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}

func envInt(key string, dst *int) {
	if key == "" {
		return
	}
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = n
	}
}
