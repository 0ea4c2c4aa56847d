// Package routes declares HTTP routes as data so each domain handler can
// publish its endpoints and a module can register them on its mux.
package routes

import (
	"fmt"
	"net/http"
)

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group organizes routes under a common prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Patterns returns every "METHOD /path" pattern the group registers, in
// registration order.
func (g Group) Patterns() []string {
	var out []string
	g.walk("", func(pattern string, _ http.HandlerFunc) {
		out = append(out, pattern)
	})
	return out
}

// Register adds all routes from the given groups to the mux. It panics on a
// route without a method, as ServeMux would otherwise register it for every
// method.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		group.walk("", func(pattern string, handler http.HandlerFunc) {
			mux.HandleFunc(pattern, handler)
		})
	}
}

func (g Group) walk(parentPrefix string, fn func(pattern string, handler http.HandlerFunc)) {
	fullPrefix := parentPrefix + g.Prefix
	for _, route := range g.Routes {
		if route.Method == "" {
			panic(fmt.Sprintf("routes: %s%s has no method", fullPrefix, route.Pattern))
		}
		fn(route.Method+" "+fullPrefix+route.Pattern, route.Handler)
	}
	for _, child := range g.Children {
		child.walk(fullPrefix, fn)
	}
}
