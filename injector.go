package depends

import (
	"context"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/junioryono/depends/internal/reflection"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	scopeType   = reflect.TypeFor[*Scope]()
)

// Injector is the framework-agnostic core shared by the router adapters.
// It analyzes handlers once at registration, owns the override table and
// creates the per-request scopes.
//
// One Injector belongs to one router. Adapters create theirs from their
// options; use NewInjector directly to inject outside of a router.
type Injector struct {
	analyzer  *reflection.Analyzer
	overrides *Overrides
	logger    *slog.Logger

	handlersMu sync.RWMutex
	handlers   []*Handler
}

// NewInjector creates an Injector.
func NewInjector(opts ...Option) *Injector {
	options := &injectorOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(options)
		}
	}

	if options.logger == nil {
		options.logger = slog.Default()
	}

	supplied := []reflect.Type{contextType, scopeType}
	for _, t := range options.supplied {
		if t != nil && !slices.Contains(supplied, t) {
			supplied = append(supplied, t)
		}
	}

	return &Injector{
		analyzer:  reflection.New(supplied...),
		overrides: newOverrides(),
		logger:    options.logger,
	}
}

// Overrides returns the injector's override table.
func (i *Injector) Overrides() *Overrides {
	return i.overrides
}

// Logger returns the injector's logger.
func (i *Injector) Logger() *slog.Logger {
	return i.logger
}

// Supplied returns the host-supplied types, context.Context and *Scope first.
func (i *Injector) Supplied() []reflect.Type {
	return slices.Clone(i.analyzer.Supplied())
}

// Prepare analyzes fn as a handler and builds its dependency map. Every
// parameter must be annotated, supplied by the host, or a parameter object;
// anything else is reported as a ParameterError now rather than on the
// first request.
func (i *Injector) Prepare(fn any) (*Handler, error) {
	h, err := i.prepare(fn)
	if err != nil {
		return nil, err
	}

	i.handlersMu.Lock()
	i.handlers = append(i.handlers, h)
	i.handlersMu.Unlock()

	i.logger.Debug("handler prepared", "handler", h.name, "dependencies", len(h.Dependencies()))

	return h, nil
}

func (i *Injector) prepare(fn any) (*Handler, error) {
	if isNilFunc(fn) {
		return nil, ErrNilHandler
	}

	info, err := i.analyzer.Analyze(fn, reflection.RoleHandler)
	if err != nil {
		return nil, err
	}

	return &Handler{
		fn:       reflect.ValueOf(fn),
		raw:      fn,
		info:     info,
		name:     reflection.FuncName(fn),
		injector: i,
	}, nil
}

// Handlers returns every handler prepared so far.
func (i *Injector) Handlers() []*Handler {
	i.handlersMu.RLock()
	defer i.handlersMu.RUnlock()
	return slices.Clone(i.handlers)
}

// NewScope creates a scope for one request. values are the host values of
// the request, see Scope.Supply.
func (i *Injector) NewScope(ctx context.Context, values ...any) *Scope {
	return newScope(ctx, i, values...)
}

// ScopeFrom returns the scope of this injector attached to ctx, or a new
// one. created reports whether the caller owns the scope and must close it.
func (i *Injector) ScopeFrom(ctx context.Context, values ...any) (s *Scope, created bool) {
	if existing, err := FromContext(ctx); err == nil && existing.injector == i {
		existing.Supply(values...)
		return existing, false
	}
	return i.NewScope(ctx, values...), true
}

// Invoke calls fn within the scope attached to ctx, or a scope of its own
// that is closed before Invoke returns. fn follows the handler rules but is
// not recorded for Validate.
func (i *Injector) Invoke(ctx context.Context, fn any, values ...any) (err error) {
	h, err := i.prepare(fn)
	if err != nil {
		return err
	}

	s, created := i.ScopeFrom(ctx, values...)
	if created {
		defer func() {
			if closeErr := s.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
	}

	return h.Call(s)
}

func isNilFunc(fn any) bool {
	if fn == nil {
		return true
	}
	val := reflect.ValueOf(fn)
	return val.Kind() == reflect.Func && val.IsNil()
}
