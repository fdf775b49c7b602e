package depends

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/junioryono/depends/internal/reflection"
)

// Descriptor is the non-generic view of a provider descriptor.
// *Depends[T] implements it.
type Descriptor = reflection.Descriptor

// Annotated is implemented by parameter types that declare where their
// value comes from. Dependency is called once on the zero value of the type
// when a handler or producer taking it is registered.
//
// Example:
//
//	type RequestID string
//
//	var RequestIDDep = depends.On[RequestID](newRequestID)
//
//	func (RequestID) Dependency() depends.Descriptor { return RequestIDDep }
type Annotated = reflection.Annotated

// binding boxes a producer so it can be swapped atomically.
type binding struct {
	producer any
}

// Depends describes a function that produces a T.
//
// A Depends value is shared by reference: every handler whose parameters
// are annotated with it resolves through the same descriptor, so rebinding
// it affects all of them.
type Depends[T any] struct {
	binding atomic.Pointer[binding]
}

var _ Descriptor = (*Depends[int])(nil)

// On returns a descriptor bound to producer.
//
// producer may be any function returning T, optionally followed by a
// cleanup function (func() or func() error) and/or an error. Its
// parameters follow the same rules as handler parameters.
func On[T any](producer any) *Depends[T] {
	return Declare[T]().Bind(producer)
}

// Declare returns a descriptor with no producer. Bind must be called
// before any request reaches a handler that depends on it.
func Declare[T any]() *Depends[T] {
	return &Depends[T]{}
}

// Bind sets the producer and returns d. The last call wins; producer is
// not validated until it is first resolved.
func (d *Depends[T]) Bind(producer any) *Depends[T] {
	d.binding.Store(&binding{producer: producer})
	return d
}

// Producer returns the bound producer, or nil.
func (d *Depends[T]) Producer() any {
	if b := d.binding.Load(); b != nil {
		return b.producer
	}
	return nil
}

// ResultType returns the reflect.Type of T.
func (d *Depends[T]) ResultType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (d *Depends[T]) String() string {
	producer := d.Producer()
	if producer == nil {
		return fmt.Sprintf("Depends[%s](unbound)", formatType(d.ResultType()))
	}
	return fmt.Sprintf("Depends[%s](%s)", formatType(d.ResultType()), reflection.FuncName(producer))
}

// From resolves d within s.
func (d *Depends[T]) From(s *Scope) (T, error) {
	var zero T

	value, err := s.Resolve(d)
	if err != nil {
		return zero, err
	}
	if value == nil {
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		return zero, TypeMismatchError{
			Expected: d.ResultType(),
			Actual:   reflect.TypeOf(value),
			Context:  "typed resolution",
		}
	}
	return typed, nil
}

// Resolve resolves d within the scope attached to ctx. It is meant for
// middleware and helpers that run inside an injected request.
func (d *Depends[T]) Resolve(ctx context.Context) (T, error) {
	s, err := FromContext(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return d.From(s)
}
