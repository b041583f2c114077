package storage

import (
	"fmt"
	"os"
)

const (
	ProviderAzure      = "azure"
	ProviderFilesystem = "filesystem"
)

// Config selects and parameterizes the blob backend. ContainerName and
// ConnectionString apply to azure; Root applies to filesystem.
type Config struct {
	Provider         string `json:"provider"          toml:"provider"`
	ContainerName    string `json:"container_name"    toml:"container_name"`
	ConnectionString string `json:"connection_string" toml:"connection_string"`
	Root             string `json:"root"              toml:"root"`
}

// Env names the environment variables read by Finalize.
type Env struct {
	Provider         string
	ContainerName    string
	ConnectionString string
	Root             string
}

func (c *Config) Finalize(env *Env) error {
	if env != nil {
		lookup(env.Provider, &c.Provider)
		lookup(env.ContainerName, &c.ContainerName)
		lookup(env.ConnectionString, &c.ConnectionString)
		lookup(env.Root, &c.Root)
	}

	if c.Provider == "" {
		c.Provider = ProviderAzure
	}
	if c.ContainerName == "" {
		c.ContainerName = "documents"
	}
	if c.Root == "" {
		c.Root = "data/blobs"
	}

	switch c.Provider {
	case ProviderAzure:
		if c.ConnectionString == "" {
			return fmt.Errorf("connection_string required for provider %s", ProviderAzure)
		}
	case ProviderFilesystem:
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderAzure, ProviderFilesystem)
	}
	return nil
}

// Merge overwrites fields that are set in overlay.
func (c *Config) Merge(overlay *Config) {
	for dst, src := range map[*string]string{
		&c.Provider:         overlay.Provider,
		&c.ContainerName:    overlay.ContainerName,
		&c.ConnectionString: overlay.ConnectionString,
		&c.Root:             overlay.Root,
	} {
		if src != "" {
			*dst = src
		}
	}
}

func lookup(key string, dst *string) {
	if key == "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
