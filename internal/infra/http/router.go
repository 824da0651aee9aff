package http

import (
	"net/http"
)

// Middleware wraps an http.Handler, following the standard net/http
// middleware pattern.
type Middleware func(http.Handler) http.Handler

// Router is the routing abstraction handlers are registered against.
// It keeps application code independent of the underlying mux.
type Router interface {
	// Method handlers accept optional route-specific middleware,
	// applied in order: the first middleware wraps outermost.
	GET(path string, handler http.HandlerFunc, middlewares ...Middleware)
	POST(path string, handler http.HandlerFunc, middlewares ...Middleware)
	PUT(path string, handler http.HandlerFunc, middlewares ...Middleware)
	PATCH(path string, handler http.HandlerFunc, middlewares ...Middleware)
	DELETE(path string, handler http.HandlerFunc, middlewares ...Middleware)

	// Group creates a route group under prefix. Group middleware
	// applies to every route registered inside fn.
	Group(prefix string, fn func(Router), middlewares ...Middleware)

	// Use adds middleware applying to all subsequently registered routes.
	Use(middlewares ...Middleware)

	// With returns a Router that applies the given middleware to the
	// routes registered on it, without modifying the parent.
	With(middlewares ...Middleware) Router

	// Handler returns the http.Handler for use with http.Server.
	Handler() http.Handler
}

// Chain applies middlewares to a handler; the first middleware in the
// list becomes the outermost wrapper.
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
