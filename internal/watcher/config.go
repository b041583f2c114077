package watcher

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls the transcript folder watcher.
type Config struct {
	Enabled  bool   `toml:"enabled"`
	Folder   string `toml:"folder"`
	Interval string `toml:"interval"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled  string
	Folder   string
	Interval string
}

// IntervalDuration returns Interval as a time.Duration.
func (c *Config) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Folder != "" {
		c.Folder = overlay.Folder
	}
	if overlay.Interval != "" {
		c.Interval = overlay.Interval
	}
}

func (c *Config) loadDefaults() {
	if c.Folder == "" {
		c.Folder = "data/transcriptions"
	}
	if c.Interval == "" {
		c.Interval = "300s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.Folder != "" {
		if v := os.Getenv(env.Folder); v != "" {
			c.Folder = v
		}
	}
	if env.Interval != "" {
		if v := os.Getenv(env.Interval); v != "" {
			c.Interval = v
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}
