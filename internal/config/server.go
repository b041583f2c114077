package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "CALLBOOK_SERVER_HOST"
	EnvServerPort              = "CALLBOOK_SERVER_PORT"
	EnvServerReadTimeout       = "CALLBOOK_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "CALLBOOK_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "CALLBOOK_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "CALLBOOK_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "CALLBOOK_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP server parameters. The write timeout covers a
// synchronous document process call, which waits on the classification model.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return parseDuration(c.ReadTimeout)
}

func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return parseDuration(c.ReadHeaderTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return parseDuration(c.WriteTimeout)
}

func (c *ServerConfig) IdleTimeoutDuration() time.Duration {
	return parseDuration(c.IdleTimeout)
}

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	overlayString(&c.Host, overlay.Host)
	overlayInt(&c.Port, overlay.Port)
	overlayString(&c.ReadTimeout, overlay.ReadTimeout)
	overlayString(&c.ReadHeaderTimeout, overlay.ReadHeaderTimeout)
	overlayString(&c.WriteTimeout, overlay.WriteTimeout)
	overlayString(&c.IdleTimeout, overlay.IdleTimeout)
	overlayString(&c.ShutdownTimeout, overlay.ShutdownTimeout)
}

func (c *ServerConfig) loadDefaults() {
	defaults := ServerConfig{
		Host:              "0.0.0.0",
		Port:              8080,
		ReadTimeout:       "1m",
		ReadHeaderTimeout: "10s",
		WriteTimeout:      "5m",
		IdleTimeout:       "2m",
		ShutdownTimeout:   "30s",
	}
	defaults.Merge(c)
	*c = defaults
}

func (c *ServerConfig) loadEnv() {
	envString(EnvServerHost, &c.Host)
	envInt(EnvServerPort, &c.Port)
	envString(EnvServerReadTimeout, &c.ReadTimeout)
	envString(EnvServerReadHeaderTimeout, &c.ReadHeaderTimeout)
	envString(EnvServerWriteTimeout, &c.WriteTimeout)
	envString(EnvServerIdleTimeout, &c.IdleTimeout)
	envString(EnvServerShutdownTimeout, &c.ShutdownTimeout)
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return validateDurations(map[string]string{
		"read_timeout":        c.ReadTimeout,
		"read_header_timeout": c.ReadHeaderTimeout,
		"write_timeout":       c.WriteTimeout,
		"idle_timeout":        c.IdleTimeout,
		"shutdown_timeout":    c.ShutdownTimeout,
	})
}
