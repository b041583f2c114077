package middleware

import (
	"os"
	"strconv"
	"strings"
)

// CORSConfig holds the CORS policy for browser clients of the API. An origin
// of "*" admits any origin; credentials are never combined with "*".
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	ExposedHeaders   []string `toml:"exposed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// CORSEnv names the environment variables that override CORSConfig fields.
// List values are comma separated.
type CORSEnv struct {
	Enabled          string
	Origins          string
	AllowedMethods   string
	AllowedHeaders   string
	ExposedHeaders   string
	AllowCredentials string
	MaxAge           string
}

func (c *CORSConfig) Finalize(env *CORSEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return nil
}

// Merge applies set fields from overlay. Flags can only be switched on by an
// overlay; turning CORS off again is done through the environment.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	c.Enabled = c.Enabled || overlay.Enabled
	c.AllowCredentials = c.AllowCredentials || overlay.AllowCredentials

	for _, f := range []struct{ dst, src *[]string }{
		{&c.Origins, &overlay.Origins},
		{&c.AllowedMethods, &overlay.AllowedMethods},
		{&c.AllowedHeaders, &overlay.AllowedHeaders},
		{&c.ExposedHeaders, &overlay.ExposedHeaders},
	} {
		if *f.src != nil {
			*f.dst = *f.src
		}
	}

	if overlay.MaxAge > 0 {
		c.MaxAge = overlay.MaxAge
	}
}

func (c *CORSConfig) loadDefaults() {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Authorization", RequestIDHeader}
	}
	if len(c.ExposedHeaders) == 0 {
		c.ExposedHeaders = []string{RequestIDHeader}
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 3600
	}
}

func (c *CORSConfig) loadEnv(env *CORSEnv) {
	if b, err := strconv.ParseBool(lookup(env.Enabled)); err == nil {
		c.Enabled = b
	}
	if b, err := strconv.ParseBool(lookup(env.AllowCredentials)); err == nil {
		c.AllowCredentials = b
	}
	if n, err := strconv.Atoi(lookup(env.MaxAge)); err == nil {
		c.MaxAge = n
	}

	if list := splitList(lookup(env.Origins)); list != nil {
		c.Origins = list
	}
	if list := splitList(lookup(env.AllowedMethods)); list != nil {
		c.AllowedMethods = list
	}
	if list := splitList(lookup(env.AllowedHeaders)); list != nil {
		c.AllowedHeaders = list
	}
	if list := splitList(lookup(env.ExposedHeaders)); list != nil {
		c.ExposedHeaders = list
	}
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// splitList returns nil when s holds no non-blank entries.
func splitList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
