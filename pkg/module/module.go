// Package module mounts self-contained HTTP handlers under path prefixes,
// each with its own middleware chain.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/callbook/pkg/middleware"
)

// Module serves an inner handler under a path prefix. Requests reach the
// inner handler with the prefix removed.
type Module struct {
	prefix string
	inner  http.Handler
	chain  middleware.Chain

	once    sync.Once
	handler http.Handler
}

// New creates a Module. The prefix must start with a slash, must not end
// with one, and may span several segments ("/api/v1"). New panics on an
// invalid prefix since it is a wiring error.
func New(prefix string, inner http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{prefix: prefix, inner: inner}
}

func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. It has no effect once the module has served a
// request.
func (m *Module) Use(mw ...middleware.Func) *Module {
	m.chain = append(m.chain, mw...)
	return m
}

// ServeHTTP strips the prefix and dispatches through the middleware chain.
func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.once.Do(func() {
		m.handler = m.chain.Then(m.inner)
	})

	rest := strings.TrimPrefix(r.URL.Path, m.prefix)
	if rest == "" {
		rest = "/"
	}

	r2 := new(http.Request)
	*r2 = *r
	u := *r.URL
	u.Path = rest
	u.RawPath = ""
	r2.URL = &u

	m.handler.ServeHTTP(w, r2)
}

// matches reports whether path falls under the prefix on a segment boundary.
func (m *Module) matches(path string) bool {
	if !strings.HasPrefix(path, m.prefix) {
		return false
	}
	return len(path) == len(m.prefix) || path[len(m.prefix)] == '/'
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case prefix == "/" || strings.HasSuffix(prefix, "/"):
		return fmt.Errorf("module prefix must not end with /: %s", prefix)
	case strings.Contains(prefix, "//"):
		return fmt.Errorf("module prefix contains an empty segment: %s", prefix)
	}
	return nil
}
