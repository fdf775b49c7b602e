// Package chi provides dependency injection for the Chi router.
//
// Router wraps a chi.Router. Its registration methods accept functions with
// injectable parameters, alongside plain http.Handler values, and resolve
// their dependencies once per request.
//
// Example usage:
//
//	r := dchi.NewRouter()
//	r.Use(r.ScopeMiddleware())
//
//	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request, user CurrentUser) {
//	    render.JSON(w, r, user)
//	})
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	dhttp "github.com/junioryono/depends/http"
)

// Config holds the router configuration. It is shared with the net/http
// adapter.
type Config = dhttp.Config

// Option configures a Router.
type Option = dhttp.Option

// Options shared with the net/http adapter.
var (
	WithErrorHandler      = dhttp.WithErrorHandler
	WithCloseErrorHandler = dhttp.WithCloseErrorHandler
	WithPanicRecovery     = dhttp.WithPanicRecovery
	WithPanicHandler      = dhttp.WithPanicHandler
	WithInjectorOptions   = dhttp.WithInjectorOptions
	WithLogger            = dhttp.WithLogger
)

// Router is a chi.Router whose handlers may take injected parameters.
// Routers derived with Group, Route and With share the injector of the
// router they came from.
type Router struct {
	*dhttp.Adapter
	mux chi.Router
}

// NewRouter creates a Router over a new chi.Mux.
func NewRouter(opts ...Option) *Router {
	return New(chi.NewRouter(), opts...)
}

// New creates a Router over mux.
func New(mux chi.Router, opts ...Option) *Router {
	return &Router{
		Adapter: dhttp.New(opts...),
		mux:     mux,
	}
}

func (r *Router) derive(mux chi.Router) *Router {
	return &Router{Adapter: r.Adapter, mux: mux}
}

// Mux returns the underlying chi.Router.
func (r *Router) Mux() chi.Router {
	return r.mux
}

// ServeHTTP dispatches the request to the matching route.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Use appends middlewares to the stack.
func (r *Router) Use(middlewares ...func(http.Handler) http.Handler) {
	r.mux.Use(middlewares...)
}

// With returns a Router for inline middlewares on one route.
func (r *Router) With(middlewares ...func(http.Handler) http.Handler) *Router {
	return r.derive(r.mux.With(middlewares...))
}

// Group creates a new inline Router with a copy of the middleware stack.
func (r *Router) Group(fn func(r *Router)) *Router {
	if fn == nil {
		return r.derive(r.mux.Group(nil))
	}
	return r.derive(r.mux.Group(func(mux chi.Router) {
		fn(r.derive(mux))
	}))
}

// Route mounts a sub-Router along pattern.
func (r *Router) Route(pattern string, fn func(r *Router)) *Router {
	if fn == nil {
		return r.derive(r.mux.Route(pattern, nil))
	}
	return r.derive(r.mux.Route(pattern, func(mux chi.Router) {
		fn(r.derive(mux))
	}))
}

// Mount attaches another http.Handler along pattern.
func (r *Router) Mount(pattern string, h http.Handler) {
	r.mux.Mount(pattern, h)
}

// Handle adds a route for pattern that matches all HTTP methods.
// Like the other registration methods it panics if handler cannot be
// prepared for injection.
func (r *Router) Handle(pattern string, handler any) {
	r.mux.Handle(pattern, r.MustWrap(handler))
}

// HandleFunc is the same as Handle.
func (r *Router) HandleFunc(pattern string, handler any) {
	r.Handle(pattern, handler)
}

// Method adds a route for pattern that matches method.
func (r *Router) Method(method, pattern string, handler any) {
	r.mux.Method(method, pattern, r.MustWrap(handler))
}

// MethodFunc is the same as Method.
func (r *Router) MethodFunc(method, pattern string, handler any) {
	r.Method(method, pattern, handler)
}

// Connect adds a CONNECT route.
func (r *Router) Connect(pattern string, handler any) {
	r.Method(http.MethodConnect, pattern, handler)
}

// Delete adds a DELETE route.
func (r *Router) Delete(pattern string, handler any) {
	r.Method(http.MethodDelete, pattern, handler)
}

// Get adds a GET route.
func (r *Router) Get(pattern string, handler any) {
	r.Method(http.MethodGet, pattern, handler)
}

// Head adds a HEAD route.
func (r *Router) Head(pattern string, handler any) {
	r.Method(http.MethodHead, pattern, handler)
}

// Options adds an OPTIONS route.
func (r *Router) Options(pattern string, handler any) {
	r.Method(http.MethodOptions, pattern, handler)
}

// Patch adds a PATCH route.
func (r *Router) Patch(pattern string, handler any) {
	r.Method(http.MethodPatch, pattern, handler)
}

// Post adds a POST route.
func (r *Router) Post(pattern string, handler any) {
	r.Method(http.MethodPost, pattern, handler)
}

// Put adds a PUT route.
func (r *Router) Put(pattern string, handler any) {
	r.Method(http.MethodPut, pattern, handler)
}

// Trace adds a TRACE route.
func (r *Router) Trace(pattern string, handler any) {
	r.Method(http.MethodTrace, pattern, handler)
}

// NotFound sets the handler for routes that do not match.
func (r *Router) NotFound(handler any) {
	r.mux.NotFound(handlerFunc(r.MustWrap(handler)))
}

// MethodNotAllowed sets the handler for routes whose method is not allowed.
func (r *Router) MethodNotAllowed(handler any) {
	r.mux.MethodNotAllowed(handlerFunc(r.MustWrap(handler)))
}

func handlerFunc(h http.Handler) http.HandlerFunc {
	if h == nil {
		return nil
	}
	if fn, ok := h.(http.HandlerFunc); ok {
		return fn
	}
	return h.ServeHTTP
}
