// Package gin provides dependency injection for the Gin web framework.
//
// Router wraps a gin.IRouter. Handlers registered through it may take
// injected parameters next to *gin.Context, and are resolved once per
// request.
//
// Example usage:
//
//	engine := gin.New()
//	r := dgin.New(engine)
//	r.Use(r.ScopeMiddleware())
//
//	r.GET("/users/:id", func(c *gin.Context, user CurrentUser) {
//	    c.JSON(http.StatusOK, user)
//	})
package gin

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/junioryono/depends"
)

// ScopeKey is the key used to store the scope in gin.Context.
const ScopeKey = "depends.scope"

// SuppliedTypes are the request values handlers and producers receive from
// Gin, in addition to context.Context and *depends.Scope.
var SuppliedTypes = []reflect.Type{
	reflect.TypeFor[*gin.Context](),
	reflect.TypeFor[http.ResponseWriter](),
	reflect.TypeFor[*http.Request](),
}

// Config holds the router configuration.
type Config struct {
	// ErrorHandler is called with the error returned by a handler or by
	// one of its producers.
	// If nil, a default handler recording the error and aborting with 500 is used.
	ErrorHandler func(*gin.Context, error)

	// CloseErrorHandler is called when scope closing fails.
	// If nil, errors are logged using slog.
	CloseErrorHandler func(error)

	// PanicRecovery enables panic recovery in wrapped handlers.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*gin.Context, any)

	// InjectorOptions configure the router's injector.
	InjectorOptions []depends.Option
}

// Option configures a Router.
type Option func(*Config)

// WithErrorHandler sets the handler for request errors.
func WithErrorHandler(h func(*gin.Context, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

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
func WithPanicHandler(h func(*gin.Context, any)) Option {
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
		ErrorHandler: func(c *gin.Context, err error) {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal Server Error",
			})
		},
		CloseErrorHandler: func(err error) {
			slog.Error("failed to close scope", "error", err)
		},
		PanicRecovery: false,
		PanicHandler: func(c *gin.Context, v any) {
			slog.Error("panic in handler", "panic", v)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal Server Error",
			})
		},
	}
}

// Router is a gin.IRouter whose handlers may take injected parameters.
// Groups share the injector of the router they came from.
type Router struct {
	router   gin.IRouter
	injector *depends.Injector
	cfg      *Config
}

// New creates a Router over router, usually a *gin.Engine.
func New(router gin.IRouter, opts ...Option) *Router {
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

// IRouter returns the underlying gin.IRouter.
func (r *Router) IRouter() gin.IRouter {
	return r.router
}

// Wrap prepares handler for injection. A nil handler is returned as nil,
// and gin.HandlerFunc values are returned unchanged.
func (r *Router) Wrap(handler any) (gin.HandlerFunc, error) {
	switch h := handler.(type) {
	case nil:
		return nil, nil
	case gin.HandlerFunc:
		return h, nil
	case func(*gin.Context):
		return h, nil
	}

	prepared, err := r.injector.Prepare(handler)
	if err != nil {
		return nil, err
	}

	return r.serve(prepared), nil
}

func (r *Router) wrapAll(handlers []any) []gin.HandlerFunc {
	wrapped := make([]gin.HandlerFunc, len(handlers))
	for i, handler := range handlers {
		h, err := r.Wrap(handler)
		if err != nil {
			panic(fmt.Sprintf("depends: cannot register handler %s: %v", depends.FuncName(handler), err))
		}
		wrapped[i] = h
	}
	return wrapped
}

// ScopeMiddleware creates the request scope, stores it in the gin.Context
// and the request context, and closes it after the request completes.
func (r *Router) ScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, created := r.scope(c)
		if created {
			defer r.close(s)
		}

		c.Next()
	}
}

func (r *Router) serve(h *depends.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					r.cfg.PanicHandler(c, v)
				}
			}()
		}

		s, created := r.scope(c)
		if created {
			defer r.close(s)
		}

		if err := h.Call(s); err != nil {
			r.cfg.ErrorHandler(c, err)
			return
		}

		// The rest of the chain runs inside the scope this handler created.
		if created {
			c.Next()
		}
	}
}

func (r *Router) scope(c *gin.Context) (*depends.Scope, bool) {
	s, created := r.injector.ScopeFrom(c.Request.Context(), c, c.Writer, c.Request)
	if created {
		c.Request = c.Request.WithContext(s.Context())
		s.Supply(c.Request)
		c.Set(ScopeKey, s)
	}
	return s, created
}

func (r *Router) close(s *depends.Scope) {
	if err := s.Close(); err != nil {
		r.cfg.CloseErrorHandler(err)
	}
}

// FromContext retrieves the scope stored in gin.Context.
// Returns nil if no open scope is found.
func FromContext(c *gin.Context) *depends.Scope {
	v, ok := c.Get(ScopeKey)
	if !ok {
		return nil
	}

	s, ok := v.(*depends.Scope)
	if !ok || s.IsClosed() {
		return nil
	}
	return s
}

// Use adds middleware to the group and returns r, so chained calls keep
// injecting.
func (r *Router) Use(middleware ...any) *Router {
	r.router.Use(r.wrapAll(middleware)...)
	return r
}

// Group creates a new router group sharing this router's injector.
func (r *Router) Group(relativePath string, handlers ...any) *Router {
	return &Router{
		router:   r.router.Group(relativePath, r.wrapAll(handlers)...),
		injector: r.injector,
		cfg:      r.cfg,
	}
}

// Handle registers handlers for httpMethod and relativePath. Every handler
// in the chain may take injected parameters; they share one scope per
// request. It panics if a handler cannot be prepared for injection.
func (r *Router) Handle(httpMethod, relativePath string, handlers ...any) *Router {
	r.router.Handle(httpMethod, relativePath, r.wrapAll(handlers)...)
	return r
}

// GET is a shortcut for Handle("GET", ...).
func (r *Router) GET(relativePath string, handlers ...any) *Router {
	return r.Handle(http.MethodGet, relativePath, handlers...)
}

// POST is a shortcut for Handle("POST", ...).
func (r *Router) POST(relativePath string, handlers ...any) *Router {
	return r.Handle(http.MethodPost, relativePath, handlers...)
}

// PUT is a shortcut for Handle("PUT", ...).
func (r *Router) PUT(relativePath string, handlers ...any) *Router {
	return r.Handle(http.MethodPut, relativePath, handlers...)
}

// PATCH is a shortcut for Handle("PATCH", ...).
func (r *Router) PATCH(relativePath string, handlers ...any) *Router {
	return r.Handle(http.MethodPatch, relativePath, handlers...)
}

// DELETE is a shortcut for Handle("DELETE", ...).
func (r *Router) DELETE(relativePath string, handlers ...any) *Router {
	return r.Handle(http.MethodDelete, relativePath, handlers...)
}

// OPTIONS is a shortcut for Handle("OPTIONS", ...).
func (r *Router) OPTIONS(relativePath string, handlers ...any) *Router {
	return r.Handle(http.MethodOptions, relativePath, handlers...)
}

// HEAD is a shortcut for Handle("HEAD", ...).
func (r *Router) HEAD(relativePath string, handlers ...any) *Router {
	return r.Handle(http.MethodHead, relativePath, handlers...)
}

// Any registers a route that matches all the HTTP methods.
func (r *Router) Any(relativePath string, handlers ...any) *Router {
	r.router.Any(relativePath, r.wrapAll(handlers)...)
	return r
}

// Match registers a route that matches the given methods.
func (r *Router) Match(methods []string, relativePath string, handlers ...any) *Router {
	r.router.Match(methods, relativePath, r.wrapAll(handlers)...)
	return r
}
