// Package middleware provides the HTTP middleware shared by every module:
// request logging, panic recovery, and CORS.
package middleware

import (
	"net/http"
	"slices"
)

// System manages an ordered stack of HTTP middleware. The first middleware
// added is the outermost.
type System interface {
	Use(mw func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
	Len() int
}

type mw struct {
	stack []func(http.Handler) http.Handler
}

// New creates a System seeded with fns, in order. Nil entries are skipped.
func New(fns ...func(http.Handler) http.Handler) System {
	m := &mw{}
	for _, fn := range fns {
		m.Use(fn)
	}
	return m
}

func (m *mw) Use(fn func(http.Handler) http.Handler) {
	if fn == nil {
		return
	}
	m.stack = append(m.stack, fn)
}

func (m *mw) Apply(handler http.Handler) http.Handler {
	for _, fn := range slices.Backward(m.stack) {
		handler = fn(handler)
	}
	return handler
}

func (m *mw) Len() int {
	return len(m.stack)
}
