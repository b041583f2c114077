package module

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Router dispatches to the mounted module with the longest matching prefix
// and falls back to a plain ServeMux for everything else.
type Router struct {
	modules []*Module
	native  *http.ServeMux
}

func NewRouter() *Router {
	return &Router{native: http.NewServeMux()}
}

// HandleNative registers a handler outside every module.
func (r *Router) HandleNative(pattern string, handler http.Handler) {
	r.native.Handle(pattern, handler)
}

// Mount adds m. Mounting two modules at the same prefix is an error.
func (r *Router) Mount(m *Module) error {
	for _, existing := range r.modules {
		if existing.prefix == m.prefix {
			return fmt.Errorf("module already mounted at %s", m.prefix)
		}
	}
	r.modules = append(r.modules, m)
	slices.SortFunc(r.modules, func(a, b *Module) int {
		return len(b.prefix) - len(a.prefix)
	})
	return nil
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
		req.URL.Path = path
	}

	for _, m := range r.modules {
		if m.matches(path) {
			m.ServeHTTP(w, req)
			return
		}
	}

	r.native.ServeHTTP(w, req)
}
