package depends

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/depends/internal/graph"
	"github.com/junioryono/depends/internal/reflection"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are wrapped in typed errors when returned.
// Match them with errors.Is.

var (
	// Scope errors.
	ErrNoScope     = errors.New("no dependency scope in context")
	ErrScopeClosed = errors.New("scope has been closed")

	// Registration errors.
	ErrNilHandler    = errors.New("handler cannot be nil")
	ErrNotInjectable = reflection.ErrNotInjectable

	// Resolution errors.
	ErrUnboundProducer = reflection.ErrUnboundProducer
	ErrNotSupplied     = reflection.ErrNotSupplied

	// Override errors.
	ErrOverrideNil     = errors.New("override original and replacement cannot be nil")
	ErrOverrideNotFunc = errors.New("override original and replacement must be functions")
)

var (
	_ error = UnboundProducerError{}
	_ error = TypeMismatchError{}
	_ error = OverrideError{}
	_ error = DisposalError{}
	_ error = ParameterError{}
	_ error = SignatureError{}
	_ error = CircularDependencyError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// ParameterError reports, at registration, a parameter that is neither
// annotated nor supplied by the host, so nothing could ever provide it.
type ParameterError = reflection.ParameterError

// SignatureError reports a handler or producer with an unsupported shape.
type SignatureError = reflection.SignatureError

// CircularDependencyError reports a producer chain that leads back to itself.
type CircularDependencyError = graph.CircularDependencyError

// UnboundProducerError is returned when a descriptor declared with Declare
// is resolved before Bind was called.
type UnboundProducerError struct {
	Descriptor Descriptor
}

func (e UnboundProducerError) Error() string {
	if e.Descriptor == nil {
		return ErrUnboundProducer.Error()
	}
	return fmt.Sprintf("%v for %s: call Bind before serving", ErrUnboundProducer, formatType(e.Descriptor.ResultType()))
}

func (e UnboundProducerError) Unwrap() error {
	return ErrUnboundProducer
}

// TypeMismatchError indicates a produced value is not usable as the
// descriptor's result type.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string // producer name or "typed resolution"
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

// OverrideError reports an invalid override registration.
type OverrideError struct {
	Original    any
	Replacement any
	Cause       error
}

func (e OverrideError) Error() string {
	return fmt.Sprintf("cannot override %s with %s: %v",
		describeFunc(e.Original), describeFunc(e.Replacement), e.Cause)
}

func (e OverrideError) Unwrap() error {
	return e.Cause
}

// DisposalError aggregates cleanup failures.
type DisposalError struct {
	Context string // "scope"
	Errors  []error
}

func (e DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s disposal failed: %v", e.Context, e.Errors[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s disposal failed with %d errors:", e.Context, len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return sb.String()
}

func (e DisposalError) Unwrap() []error {
	return e.Errors
}

func describeFunc(fn any) string {
	switch v := fn.(type) {
	case nil:
		return "<nil>"
	case Descriptor:
		return fmt.Sprint(v)
	}
	if reflect.TypeOf(fn).Kind() == reflect.Func {
		return reflection.FuncName(fn)
	}
	return fmt.Sprintf("%T", fn)
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	// Handle common cases with cleaner output
	switch t.Kind() {
	case reflect.Pointer:
		// Format pointers as *Type instead of *package.Type
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			// Named type with package
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		// Format slices as []Type
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			// Named type with package
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Map:
		// Format maps more concisely
		key := t.Key()
		elem := t.Elem()
		keyStr := key.Name()
		if keyStr == "" {
			keyStr = key.String()
		}
		elemStr := elem.Name()
		if elemStr == "" {
			elemStr = elem.String()
		}
		return "map[" + keyStr + "]" + elemStr
	case reflect.Interface:
		// For interfaces, just use the name if available
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	case reflect.Struct:
		// For structs, use the short name if available
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	case reflect.Func:
		// For functions, use String() which gives a nice representation
		return t.String()
	default:
		// For basic types and others, prefer the name if available
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
