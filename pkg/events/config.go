package events

import (
	"fmt"
	"os"
	"time"
)

// Config holds NATS connection parameters. An empty URL disables publishing.
type Config struct {
	URL           string `toml:"url"`
	Token         string `toml:"token"`
	SubjectPrefix string `toml:"subject_prefix"`
	ReconnectWait string `toml:"reconnect_wait"`
	MaxReconnects int    `toml:"max_reconnects"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL           string
	Token         string
	SubjectPrefix string
}

// Enabled reports whether a NATS URL is configured.
func (c *Config) Enabled() bool {
	return c.URL != ""
}

// ReconnectWaitDuration returns ReconnectWait as a time.Duration.
func (c *Config) ReconnectWaitDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReconnectWait)
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
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.SubjectPrefix != "" {
		c.SubjectPrefix = overlay.SubjectPrefix
	}
	if overlay.ReconnectWait != "" {
		c.ReconnectWait = overlay.ReconnectWait
	}
	if overlay.MaxReconnects != 0 {
		c.MaxReconnects = overlay.MaxReconnects
	}
}

func (c *Config) loadDefaults() {
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "callbook"
	}
	if c.ReconnectWait == "" {
		c.ReconnectWait = "2s"
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 60
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.URL != "" {
		if v := os.Getenv(env.URL); v != "" {
			c.URL = v
		}
	}
	if env.Token != "" {
		if v := os.Getenv(env.Token); v != "" {
			c.Token = v
		}
	}
	if env.SubjectPrefix != "" {
		if v := os.Getenv(env.SubjectPrefix); v != "" {
			c.SubjectPrefix = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ReconnectWait); err != nil {
		return fmt.Errorf("invalid reconnect_wait: %w", err)
	}
	return nil
}
