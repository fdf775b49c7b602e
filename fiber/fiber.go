// Package fiber provides dependency injection for the Fiber web framework.
//
// Router wraps a fiber.Router. Handlers registered through it may take
// injected parameters next to *fiber.Ctx. Errors returned by handlers and
// producers go to Fiber's ErrorHandler unmodified.
//
// Example usage:
//
//	app := fiber.New()
//	r := dfiber.New(app)
//	r.Use(r.ScopeMiddleware())
//
//	r.Get("/users/:id", func(c *fiber.Ctx, user CurrentUser) error {
//	    return c.JSON(user)
//	})
package fiber

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/gofiber/fiber/v2"
	"github.com/junioryono/depends"
)

// ScopeKey is the key used to store the scope in fiber.Ctx.Locals.
const ScopeKey = "depends.scope"

// SuppliedTypes are the request values handlers and producers receive from
// Fiber, in addition to context.Context and *depends.Scope. Fiber does not
// expose a net/http request.
var SuppliedTypes = []reflect.Type{
	reflect.TypeFor[*fiber.Ctx](),
}

// Config holds the router configuration.
type Config struct {
	// CloseErrorHandler is called when scope closing fails.
	// If nil, errors are logged using slog.
	CloseErrorHandler func(error)

	// PanicRecovery enables panic recovery in wrapped handlers.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	// The returned error goes to Fiber's ErrorHandler.
	PanicHandler func(*fiber.Ctx, any) error

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
func WithPanicHandler(h func(*fiber.Ctx, any) error) Option {
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
		PanicHandler: func(c *fiber.Ctx, v any) error {
			slog.Error("panic in handler", "panic", v)
			return fiber.NewError(http.StatusInternalServerError, "Internal Server Error")
		},
	}
}

// Router registers handlers that may take injected parameters on a Fiber
// app or group. Groups share the injector of the router they came from.
type Router struct {
	router   fiber.Router
	injector *depends.Injector
	cfg      *Config
}

// New creates a Router over router, usually a *fiber.App.
func New(router fiber.Router, opts ...Option) *Router {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	injectorOpts := append([]depends.Option{depends.WithSupplied(SuppliedTypes...)}, cfg.InjectorOptions...)

	return &Router{
		router:   router,
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

// FiberRouter returns the underlying fiber.Router.
func (r *Router) FiberRouter() fiber.Router {
	return r.router
}

// Wrap prepares handler for injection. A nil handler is returned as nil,
// and fiber.Handler values are returned unchanged.
func (r *Router) Wrap(handler any) (fiber.Handler, error) {
	switch h := handler.(type) {
	case nil:
		return nil, nil
	case fiber.Handler:
		return h, nil
	}

	prepared, err := r.injector.Prepare(handler)
	if err != nil {
		return nil, err
	}

	return r.serve(prepared), nil
}

func (r *Router) wrapAll(handlers []any) []fiber.Handler {
	wrapped := make([]fiber.Handler, len(handlers))
	for i, handler := range handlers {
		h, err := r.Wrap(handler)
		if err != nil {
			panic(fmt.Sprintf("depends: cannot register handler %s: %v", depends.FuncName(handler), err))
		}
		wrapped[i] = h
	}
	return wrapped
}

// ScopeMiddleware creates the request scope, stores it in fiber.Ctx.Locals
// and the user context, and closes it after the request completes.
func (r *Router) ScopeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, created := r.scope(c)
		if created {
			defer r.close(s)
		}

		return c.Next()
	}
}

func (r *Router) serve(h *depends.Handler) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
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

func (r *Router) scope(c *fiber.Ctx) (*depends.Scope, bool) {
	s, created := r.injector.ScopeFrom(c.UserContext(), c)
	if created {
		c.SetUserContext(s.Context())
		c.Locals(ScopeKey, s)
	}
	return s, created
}

func (r *Router) close(s *depends.Scope) {
	if err := s.Close(); err != nil {
		r.cfg.CloseErrorHandler(err)
	}
}

// FromContext retrieves the scope from fiber.Ctx.Locals.
// Returns nil if no open scope is found.
func FromContext(c *fiber.Ctx) *depends.Scope {
	s, ok := c.Locals(ScopeKey).(*depends.Scope)
	if !ok || s.IsClosed() {
		return nil
	}
	return s
}

// Use registers middleware. Like fiber.Router.Use, it accepts an optional
// path prefix as a string or []string before the handlers.
func (r *Router) Use(args ...any) *Router {
	converted := make([]any, len(args))
	for i, arg := range args {
		switch arg.(type) {
		case string, []string:
			converted[i] = arg
		default:
			converted[i] = r.wrapAll([]any{arg})[0]
		}
	}
	r.router.Use(converted...)
	return r
}

// Group creates a router group with prefix, sharing this router's injector.
func (r *Router) Group(prefix string, handlers ...any) *Router {
	return &Router{
		router:   r.router.Group(prefix, r.wrapAll(handlers)...),
		injector: r.injector,
		cfg:      r.cfg,
	}
}

// Add registers a route for method and path. It panics if a handler cannot
// be prepared for injection.
func (r *Router) Add(method, path string, handlers ...any) *Router {
	r.router.Add(method, path, r.wrapAll(handlers)...)
	return r
}

// Get registers a route for the GET method.
func (r *Router) Get(path string, handlers ...any) *Router {
	return r.Add(fiber.MethodGet, path, handlers...)
}

// Head registers a route for the HEAD method.
func (r *Router) Head(path string, handlers ...any) *Router {
	return r.Add(fiber.MethodHead, path, handlers...)
}

// Post registers a route for the POST method.
func (r *Router) Post(path string, handlers ...any) *Router {
	return r.Add(fiber.MethodPost, path, handlers...)
}

// Put registers a route for the PUT method.
func (r *Router) Put(path string, handlers ...any) *Router {
	return r.Add(fiber.MethodPut, path, handlers...)
}

// Delete registers a route for the DELETE method.
func (r *Router) Delete(path string, handlers ...any) *Router {
	return r.Add(fiber.MethodDelete, path, handlers...)
}

// Connect registers a route for the CONNECT method.
func (r *Router) Connect(path string, handlers ...any) *Router {
	return r.Add(fiber.MethodConnect, path, handlers...)
}

// Options registers a route for the OPTIONS method.
func (r *Router) Options(path string, handlers ...any) *Router {
	return r.Add(fiber.MethodOptions, path, handlers...)
}

// Trace registers a route for the TRACE method.
func (r *Router) Trace(path string, handlers ...any) *Router {
	return r.Add(fiber.MethodTrace, path, handlers...)
}

// Patch registers a route for the PATCH method.
func (r *Router) Patch(path string, handlers ...any) *Router {
	return r.Add(fiber.MethodPatch, path, handlers...)
}

// All registers a route that matches all the HTTP methods.
func (r *Router) All(path string, handlers ...any) *Router {
	r.router.All(path, r.wrapAll(handlers)...)
	return r
}
