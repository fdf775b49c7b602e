// Package echo provides dependency injection for the Echo web framework.
//
// Router wraps an *echo.Echo or *echo.Group. Handlers registered through it
// may take injected parameters next to echo.Context. Errors returned by
// handlers and producers go to Echo's HTTPErrorHandler unmodified.
//
// Example usage:
//
//	e := echo.New()
//	r := decho.New(e)
//	r.Use(r.ScopeMiddleware())
//
//	r.GET("/users/:id", func(c echo.Context, user CurrentUser) error {
//	    return c.JSON(http.StatusOK, user)
//	})
package echo

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/junioryono/depends"
	"github.com/labstack/echo/v4"
)

// ScopeKey is the key used to store the scope in echo.Context.
const ScopeKey = "depends.scope"

// SuppliedTypes are the request values handlers and producers receive from
// Echo, in addition to context.Context and *depends.Scope.
var SuppliedTypes = []reflect.Type{
	reflect.TypeFor[echo.Context](),
	reflect.TypeFor[http.ResponseWriter](),
	reflect.TypeFor[*http.Request](),
}

// Routes is the part of *echo.Echo and *echo.Group a Router registers on.
type Routes interface {
	Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route
	Any(path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) []*echo.Route
	Match(methods []string, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) []*echo.Route
	Group(prefix string, middleware ...echo.MiddlewareFunc) *echo.Group
	Use(middleware ...echo.MiddlewareFunc)
}

var (
	_ Routes = (*echo.Echo)(nil)
	_ Routes = (*echo.Group)(nil)
)

// Config holds the router configuration.
type Config struct {
	// CloseErrorHandler is called when scope closing fails.
	// If nil, errors are logged using slog.
	CloseErrorHandler func(error)

	// PanicRecovery enables panic recovery in wrapped handlers.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	// The returned error goes to Echo's HTTPErrorHandler.
	PanicHandler func(echo.Context, any) error

	// InjectorOptions configure the router's injector.
	InjectorOptions []depends.Option
}

// Option configures a Router.
type Option func(*Config)

// WithCloseErrorHandler sets the error handler for scope close failures.
func WithCloseErrorHandler(h func(error)) Option {
	return func(c *Config) {
		c.CloseErrorHandler = h
	}
}

// WithPanicRecovery enables or disables panic recovery in wrapped handlers.
func WithPanicRecovery(enabled bool) Option {
	return func(c *Config) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(echo.Context, any) error) Option {
	return func(c *Config) {
		c.PanicHandler = h
	}
}

// WithInjectorOptions passes options to the router's injector.
func WithInjectorOptions(opts ...depends.Option) Option {
	return func(c *Config) {
		c.InjectorOptions = append(c.InjectorOptions, opts...)
	}
}

func defaultConfig() *Config {
	return &Config{
		CloseErrorHandler: func(err error) {
			slog.Error("failed to close scope", "error", err)
		},
		PanicRecovery: false,
		PanicHandler: func(c echo.Context, v any) error {
			slog.Error("panic in handler", "panic", v)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
	}
}

// Router registers handlers that may take injected parameters on an Echo
// instance or group. Groups share the injector of the router they came from.
type Router struct {
	routes   Routes
	injector *depends.Injector
	cfg      *Config
}

// New creates a Router over routes, an *echo.Echo or *echo.Group.
func New(routes Routes, opts ...Option) *Router {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	injectorOpts := append([]depends.Option{depends.WithSupplied(SuppliedTypes...)}, cfg.InjectorOptions...)

	return &Router{
		routes:   routes,
		injector: depends.NewInjector(injectorOpts...),
		cfg:      cfg,
	}
}

// Injector returns the router's injector.
func (r *Router) Injector() *depends.Injector {
	return r.injector
}

// Overrides returns the router's override table.
func (r *Router) Overrides() *depends.Overrides {
	return r.injector.Overrides()
}

// Routes returns the underlying Echo instance or group.
func (r *Router) Routes() Routes {
	return r.routes
}

// Wrap prepares handler for injection. A nil handler is returned as nil,
// and echo.HandlerFunc values are returned unchanged.
func (r *Router) Wrap(handler any) (echo.HandlerFunc, error) {
	switch h := handler.(type) {
	case nil:
		return nil, nil
	case echo.HandlerFunc:
		return h, nil
	case func(echo.Context) error:
		return h, nil
	}

	prepared, err := r.injector.Prepare(handler)
	if err != nil {
		return nil, err
	}

	return r.serve(prepared), nil
}

func (r *Router) mustWrap(handler any) echo.HandlerFunc {
	h, err := r.Wrap(handler)
	if err != nil {
		panic(fmt.Sprintf("depends: cannot register handler %s: %v", depends.FuncName(handler), err))
	}
	return h
}

// ScopeMiddleware creates the request scope, stores it in echo.Context and
// the request context, and closes it after the request completes.
func (r *Router) ScopeMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, created := r.scope(c)
			if created {
				defer r.close(s)
			}

			return next(c)
		}
	}
}

func (r *Router) serve(h *depends.Handler) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		if r.cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = r.cfg.PanicHandler(c, v)
				}
			}()
		}

		s, created := r.scope(c)
		if created {
			defer r.close(s)
		}

		return h.Call(s)
	}
}

func (r *Router) scope(c echo.Context) (*depends.Scope, bool) {
	s, created := r.injector.ScopeFrom(c.Request().Context(), c, c.Response(), c.Request())
	if created {
		req := c.Request().WithContext(s.Context())
		c.SetRequest(req)
		s.Supply(req)
		c.Set(ScopeKey, s)
	}
	return s, created
}

func (r *Router) close(s *depends.Scope) {
	if err := s.Close(); err != nil {
		r.cfg.CloseErrorHandler(err)
	}
}

// FromContext retrieves the scope stored in echo.Context.
// Returns nil if no open scope is found.
func FromContext(c echo.Context) *depends.Scope {
	s, ok := c.Get(ScopeKey).(*depends.Scope)
	if !ok || s.IsClosed() {
		return nil
	}
	return s
}

// Use adds middleware to the router.
func (r *Router) Use(middleware ...echo.MiddlewareFunc) {
	r.routes.Use(middleware...)
}

// Group creates a router group with prefix, sharing this router's injector.
func (r *Router) Group(prefix string, middleware ...echo.MiddlewareFunc) *Router {
	return &Router{
		routes:   r.routes.Group(prefix, middleware...),
		injector: r.injector,
		cfg:      r.cfg,
	}
}

// Add registers a route for method and path. It panics if handler cannot be
// prepared for injection.
func (r *Router) Add(method, path string, handler any, middleware ...echo.MiddlewareFunc) *echo.Route {
	return r.routes.Add(method, path, r.mustWrap(handler), middleware...)
}

// CONNECT registers a route for the CONNECT method.
func (r *Router) CONNECT(path string, handler any, middleware ...echo.MiddlewareFunc) *echo.Route {
	return r.Add(http.MethodConnect, path, handler, middleware...)
}

// DELETE registers a route for the DELETE method.
func (r *Router) DELETE(path string, handler any, middleware ...echo.MiddlewareFunc) *echo.Route {
	return r.Add(http.MethodDelete, path, handler, middleware...)
}

// GET registers a route for the GET method.
func (r *Router) GET(path string, handler any, middleware ...echo.MiddlewareFunc) *echo.Route {
	return r.Add(http.MethodGet, path, handler, middleware...)
}

// HEAD registers a route for the HEAD method.
func (r *Router) HEAD(path string, handler any, middleware ...echo.MiddlewareFunc) *echo.Route {
	return r.Add(http.MethodHead, path, handler, middleware...)
}

// OPTIONS registers a route for the OPTIONS method.
func (r *Router) OPTIONS(path string, handler any, middleware ...echo.MiddlewareFunc) *echo.Route {
	return r.Add(http.MethodOptions, path, handler, middleware...)
}

// PATCH registers a route for the PATCH method.
func (r *Router) PATCH(path string, handler any, middleware ...echo.MiddlewareFunc) *echo.Route {
	return r.Add(http.MethodPatch, path, handler, middleware...)
}

// POST registers a route for the POST method.
func (r *Router) POST(path string, handler any, middleware ...echo.MiddlewareFunc) *echo.Route {
	return r.Add(http.MethodPost, path, handler, middleware...)
}

// PUT registers a route for the PUT method.
func (r *Router) PUT(path string, handler any, middleware ...echo.MiddlewareFunc) *echo.Route {
	return r.Add(http.MethodPut, path, handler, middleware...)
}

// TRACE registers a route for the TRACE method.
func (r *Router) TRACE(path string, handler any, middleware ...echo.MiddlewareFunc) *echo.Route {
	return r.Add(http.MethodTrace, path, handler, middleware...)
}

// Any registers a route that matches all the HTTP methods.
func (r *Router) Any(path string, handler any, middleware ...echo.MiddlewareFunc) []*echo.Route {
	return r.routes.Any(path, r.mustWrap(handler), middleware...)
}

// Match registers a route that matches the given methods.
func (r *Router) Match(methods []string, path string, handler any, middleware ...echo.MiddlewareFunc) []*echo.Route {
	return r.routes.Match(methods, path, r.mustWrap(handler), middleware...)
}
