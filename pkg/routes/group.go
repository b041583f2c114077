// Package routes declares HTTP routes as nested groups and registers them on
// a ServeMux using method-qualified patterns.
package routes

import "net/http"

// Route is one endpoint. Pattern is relative to the enclosing groups and may
// be empty to bind the group prefix itself.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group collects routes under a shared prefix. Children inherit the
// accumulated prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Wrap decorates a handler given the full pattern it is registered under,
// e.g. "GET /questions/{id}".
type Wrap func(pattern string, h http.Handler) http.Handler

// Register adds every route in groups to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	RegisterWith(mux, nil, groups...)
}

// RegisterWith adds every route in groups to mux, passing each handler
// through wrap first. A nil wrap registers handlers as-is.
func RegisterWith(mux *http.ServeMux, wrap Wrap, groups ...Group) {
	walk(groups, "", func(pattern string, h http.HandlerFunc) {
		if wrap == nil {
			mux.Handle(pattern, h)
			return
		}
		mux.Handle(pattern, wrap(pattern, h))
	})
}

// Patterns lists the full pattern of every route in groups, parents first.
func Patterns(groups ...Group) []string {
	var out []string
	walk(groups, "", func(pattern string, _ http.HandlerFunc) {
		out = append(out, pattern)
	})
	return out
}

func walk(groups []Group, parent string, visit func(pattern string, h http.HandlerFunc)) {
	for _, g := range groups {
		prefix := parent + g.Prefix
		for _, r := range g.Routes {
			visit(r.Method+" "+prefix+r.Pattern, r.Handler)
		}
		walk(g.Children, prefix, visit)
	}
}
