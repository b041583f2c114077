package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/callbook/internal/watcher"
	"github.com/JaimeStill/callbook/pkg/cache"
	"github.com/JaimeStill/callbook/pkg/database"
	"github.com/JaimeStill/callbook/pkg/events"
	"github.com/JaimeStill/callbook/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCallbookEnv     = "CALLBOOK_ENV"
	EnvShutdownTimeout = "CALLBOOK_SHUTDOWN_TIMEOUT"
	EnvVersion         = "CALLBOOK_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "CALLBOOK_DATABASE_URL",
	Host:            "CALLBOOK_DB_HOST",
	Port:            "CALLBOOK_DB_PORT",
	Name:            "CALLBOOK_DB_NAME",
	User:            "CALLBOOK_DB_USER",
	Password:        "CALLBOOK_DB_PASSWORD",
	SSLMode:         "CALLBOOK_DB_SSL_MODE",
	ApplicationName: "CALLBOOK_DB_APPLICATION_NAME",
	MaxOpenConns:    "CALLBOOK_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "CALLBOOK_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "CALLBOOK_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "CALLBOOK_DB_CONN_TIMEOUT",
	AutoMigrate:     "CALLBOOK_DB_AUTO_MIGRATE",
}

var storageEnv = &storage.Env{
	Provider:         "CALLBOOK_STORAGE_PROVIDER",
	ContainerName:    "CALLBOOK_STORAGE_CONTAINER_NAME",
	ConnectionString: "CALLBOOK_STORAGE_CONNECTION_STRING",
	Root:             "CALLBOOK_STORAGE_ROOT",
}

var watcherEnv = &watcher.Env{
	Enabled:  "CALLBOOK_WATCHER_ENABLED",
	Folder:   "CALLBOOK_WATCHER_FOLDER",
	Interval: "CALLBOOK_WATCHER_INTERVAL",
}

var cacheEnv = &cache.Env{
	Addr:     "CALLBOOK_CACHE_ADDR",
	Password: "CALLBOOK_CACHE_PASSWORD",
	DB:       "CALLBOOK_CACHE_DB",
	TTL:      "CALLBOOK_CACHE_TTL",
	Prefix:   "CALLBOOK_CACHE_PREFIX",
}

var eventsEnv = &events.Env{
	URL:           "CALLBOOK_EVENTS_URL",
	Token:         "CALLBOOK_EVENTS_TOKEN",
	SubjectPrefix: "CALLBOOK_EVENTS_SUBJECT_PREFIX",
}

// Config is the root configuration for the callbook service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	AI              AIConfig        `toml:"ai"`
	Engine          EngineConfig    `toml:"engine"`
	Watcher         watcher.Config  `toml:"watcher"`
	Cache           cache.Config    `toml:"cache"`
	Events          events.Config   `toml:"events"`
	Logging         LoggingConfig   `toml:"logging"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the CALLBOOK_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCallbookEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.AI.Merge(&overlay.AI)
	c.Engine.Merge(&overlay.Engine)
	c.Watcher.Merge(&overlay.Watcher)
	c.Cache.Merge(&overlay.Cache)
	c.Events.Merge(&overlay.Events)
	c.Logging.Merge(&overlay.Logging)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.AI.Finalize(); err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	if err := c.Engine.Finalize(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Watcher.Finalize(watcherEnv); err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	if err := c.Cache.Finalize(cacheEnv); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Events.Finalize(eventsEnv); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvCallbookEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
