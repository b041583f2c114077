// Package middleware provides composable HTTP middleware and the chain that
// orders them.
package middleware

import "net/http"

// Func wraps a handler with additional behavior.
type Func func(http.Handler) http.Handler

// Chain is an ordered middleware stack. The first entry is outermost.
type Chain []Func

// Then wraps h with every middleware in the chain.
func (c Chain) Then(h http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		h = c[i](h)
	}
	return h
}
