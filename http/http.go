// Package http provides dependency injection for net/http handlers.
//
// An Adapter turns functions with injectable parameters into http.Handler
// values. Every request gets its own depends.Scope, created by
// ScopeMiddleware or lazily by the wrapped handler, and closed when the
// request ends.
//
// Example usage:
//
//	mux := dhttp.NewServeMux()
//
//	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request, user CurrentUser) {
//	    fmt.Fprintln(w, user.Name)
//	})
//
//	http.ListenAndServe(":8080", mux)
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/junioryono/depends"
)

// SuppliedTypes are the request values handlers and producers receive from
// net/http, in addition to context.Context and *depends.Scope.
var SuppliedTypes = []reflect.Type{
	reflect.TypeFor[http.ResponseWriter](),
	reflect.TypeFor[*http.Request](),
}

// Config holds the configuration for an Adapter.
type Config struct {
	// ErrorHandler is called with the error returned by a handler or by
	// one of its producers.
	// If nil, a default handler logging with slog and returning 500 Internal Server Error is used.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// CloseErrorHandler is called when scope closing fails.
	// If nil, errors are logged using slog.
	CloseErrorHandler func(error)

	// PanicRecovery enables panic recovery in wrapped handlers.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// InjectorOptions configure the adapter's injector.
	InjectorOptions []depends.Option
}

// Option configures an Adapter.
type Option func(*Config)

// WithErrorHandler sets the handler for request errors.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
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
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) Option {
	return func(c *Config) {
		c.PanicHandler = h
	}
}

// WithInjectorOptions passes options to the adapter's injector.
func WithInjectorOptions(opts ...depends.Option) Option {
	return func(c *Config) {
		c.InjectorOptions = append(c.InjectorOptions, opts...)
	}
}

// WithLogger sets the injector's logger.
func WithLogger(logger *slog.Logger) Option {
	return WithInjectorOptions(depends.WithLogger(logger))
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("request failed", "path", r.URL.Path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		CloseErrorHandler: func(err error) {
			slog.Error("failed to close scope", "error", err)
		},
		PanicRecovery: false,
		PanicHandler: func(w http.ResponseWriter, r *http.Request, v any) {
			slog.Error("panic in handler", "panic", v)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// Adapter wraps injectable functions as http.Handler values. It owns the
// injector, and so the override table, of one router.
type Adapter struct {
	injector *depends.Injector
	cfg      *Config
}

// New creates an Adapter.
func New(opts ...Option) *Adapter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	injectorOpts := append([]depends.Option{depends.WithSupplied(SuppliedTypes...)}, cfg.InjectorOptions...)

	return &Adapter{
		injector: depends.NewInjector(injectorOpts...),
		cfg:      cfg,
	}
}

// Injector returns the adapter's injector.
func (a *Adapter) Injector() *depends.Injector {
	return a.injector
}

// Overrides returns the adapter's override table.
func (a *Adapter) Overrides() *depends.Overrides {
	return a.injector.Overrides()
}

// Config returns the adapter's configuration.
func (a *Adapter) Config() *Config {
	return a.cfg
}

// Wrap prepares handler for injection. A nil handler is returned as nil,
// and http.Handler values or plain func(http.ResponseWriter, *http.Request)
// are returned unchanged.
func (a *Adapter) Wrap(handler any) (http.Handler, error) {
	switch h := handler.(type) {
	case nil:
		return nil, nil
	case http.Handler:
		return h, nil
	case func(http.ResponseWriter, *http.Request):
		return http.HandlerFunc(h), nil
	}

	prepared, err := a.injector.Prepare(handler)
	if err != nil {
		return nil, err
	}

	return a.serve(prepared), nil
}

// MustWrap is like Wrap but panics on error.
func (a *Adapter) MustWrap(handler any) http.Handler {
	h, err := a.Wrap(handler)
	if err != nil {
		panic(fmt.Sprintf("depends: cannot register handler %s: %v", depends.FuncName(handler), err))
	}
	return h
}

// ScopeMiddleware creates the request scope, attaches it to the request
// context and closes it after the request completes. Wrapped handlers
// create the scope on their own when the middleware is absent.
func (a *Adapter) ScopeMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, created := a.injector.ScopeFrom(r.Context(), w, r)
			if created {
				r = a.attach(s, r)
				defer a.close(s)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (a *Adapter) serve(h *depends.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					a.cfg.PanicHandler(w, r, v)
				}
			}()
		}

		s, created := a.injector.ScopeFrom(r.Context(), w, r)
		if created {
			r = a.attach(s, r)
			defer a.close(s)
		}

		if err := h.Call(s); err != nil {
			a.cfg.ErrorHandler(w, r, err)
		}
	})
}

// attach moves r onto the scope's context, so the *http.Request handlers
// receive carries the scope.
func (a *Adapter) attach(s *depends.Scope, r *http.Request) *http.Request {
	r = r.WithContext(s.Context())
	s.Supply(r)
	return r
}

func (a *Adapter) close(s *depends.Scope) {
	if err := s.Close(); err != nil {
		a.cfg.CloseErrorHandler(err)
	}
}

// ServeMux is an http.ServeMux whose handlers may take injected parameters.
type ServeMux struct {
	*Adapter
	mux *http.ServeMux
}

// NewServeMux creates a ServeMux.
func NewServeMux(opts ...Option) *ServeMux {
	return &ServeMux{
		Adapter: New(opts...),
		mux:     http.NewServeMux(),
	}
}

// Handle registers handler for pattern. It panics if handler cannot be
// prepared for injection.
func (m *ServeMux) Handle(pattern string, handler any) {
	m.mux.Handle(pattern, m.MustWrap(handler))
}

// HandleFunc registers handler for pattern. It is the same as Handle and
// exists to mirror http.ServeMux.
func (m *ServeMux) HandleFunc(pattern string, handler any) {
	m.Handle(pattern, handler)
}

// ServeHTTP dispatches the request to the handler whose pattern matches.
func (m *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mux.ServeHTTP(w, r)
}

// Mux returns the underlying http.ServeMux.
func (m *ServeMux) Mux() *http.ServeMux {
	return m.mux
}
