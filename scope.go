package depends

import (
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Scope is the resolution context of one request. It caches the value of
// every producer that ran, so a producer reached from several parameters
// or nested chains runs once per request. It also holds the request values
// supplied by the host router.
//
// Adapters create a scope per request and close it when the request ends.
// Outside of an adapter:
//
//	scope := injector.NewScope(ctx)
//	defer scope.Close()
//
//	user, err := CurrentUserDep.From(scope)
type Scope struct {
	id       string
	ctx      context.Context
	injector *Injector
	cache    *instanceCache

	valuesMu sync.RWMutex
	values   map[reflect.Type]reflect.Value

	closed     atomic.Bool
	cleanupsMu sync.Mutex
	cleanups   []func() error
}

// scopeContextKey is the context key for the current scope
type scopeContextKey struct{}

func newScope(ctx context.Context, injector *Injector, values ...any) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}

	s := &Scope{
		id:       uuid.NewString(),
		injector: injector,
		cache:    newInstanceCache(),
		values:   make(map[reflect.Type]reflect.Value),
	}
	s.ctx = context.WithValue(ctx, scopeContextKey{}, s)
	s.Supply(values...)

	return s
}

// FromContext returns the scope attached to ctx.
func FromContext(ctx context.Context) (*Scope, error) {
	if ctx == nil {
		return nil, ErrNoScope
	}

	s, ok := ctx.Value(scopeContextKey{}).(*Scope)
	if !ok || s == nil {
		return nil, ErrNoScope
	}

	if s.closed.Load() {
		return nil, ErrScopeClosed
	}

	return s, nil
}

// ID returns the unique ID of this scope.
func (s *Scope) ID() string {
	return s.id
}

// Context returns the request context with this scope attached.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Injector returns the injector that created this scope.
func (s *Scope) Injector() *Injector {
	return s.injector
}

// Supply records host values. A value is stored under every host-supplied
// type it matches exactly or implements. context.Context is never replaced:
// it is always the scope's own context.
func (s *Scope) Supply(values ...any) {
	s.valuesMu.Lock()
	defer s.valuesMu.Unlock()

	for _, v := range values {
		if v == nil {
			continue
		}

		vt := reflect.TypeOf(v)
		for _, t := range s.injector.analyzer.Supplied() {
			if t == contextType || t == scopeType {
				continue
			}

			if vt == t || (t.Kind() == reflect.Interface && vt.Implements(t)) {
				val := reflect.New(t).Elem()
				val.Set(reflect.ValueOf(v))
				s.values[t] = val
			}
		}
	}
}

// supplied returns the host value for t.
func (s *Scope) supplied(t reflect.Type) (reflect.Value, bool) {
	switch t {
	case contextType:
		return reflect.ValueOf(&s.ctx).Elem(), true
	case scopeType:
		return reflect.ValueOf(s), true
	}

	s.valuesMu.RLock()
	defer s.valuesMu.RUnlock()
	val, ok := s.values[t]
	return val, ok
}

// Resolve returns the value of d for this scope, running its producer
// (or the producer's override) if it has not run yet.
//
// Errors returned by producers are passed through unmodified.
func (s *Scope) Resolve(d Descriptor) (any, error) {
	return s.resolve(d, newResolutionContext(s))
}

// Len returns the number of producers that ran in this scope.
func (s *Scope) Len() int {
	return s.cache.len()
}

// IsClosed reports whether Close has been called.
func (s *Scope) IsClosed() bool {
	return s.closed.Load()
}

func (s *Scope) addCleanup(fn func() error) {
	s.cleanupsMu.Lock()
	defer s.cleanupsMu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// Close runs the cleanups returned by producers and the Close methods of
// tracked values, in reverse order. Failures are collected into a
// DisposalError. Closing twice is a no-op.
func (s *Scope) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.cleanupsMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	var errs []error
	for _, fn := range slices.Backward(cleanups) {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}

	s.cache.clear()

	if len(errs) > 0 {
		return DisposalError{Context: "scope", Errors: errs}
	}
	return nil
}
