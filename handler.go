package depends

import (
	"reflect"

	"github.com/junioryono/depends/internal/reflection"
)

// Dependency is one entry of a handler's dependency map: an annotated
// parameter, or an annotated field of a parameter object.
type Dependency = reflection.Dependency

// Handler is a function prepared for injection.
type Handler struct {
	fn       reflect.Value
	raw      any
	info     *reflection.FuncInfo
	name     string
	injector *Injector
}

// Name returns the name of the wrapped function, for logging.
func (h *Handler) Name() string {
	return h.name
}

// Func returns the wrapped function.
func (h *Handler) Func() any {
	return h.raw
}

// Dependencies returns the dependency map in declaration order. Host
// supplied parameters are not part of it.
func (h *Handler) Dependencies() []Dependency {
	return h.info.Dependencies()
}

// Call resolves the dependencies of h within s and calls it. The error
// returned by the handler, or by any producer, is passed through unmodified.
func (h *Handler) Call(s *Scope) error {
	if s == nil {
		return ErrNoScope
	}
	if s.IsClosed() {
		return ErrScopeClosed
	}

	args, err := reflection.BuildArgs(h.info, scopeResolver{rc: newResolutionContext(s)})
	if err != nil {
		return err
	}

	return reflection.Invoke(h.fn, h.info, args).Err
}

func (h *Handler) String() string {
	return h.name
}

// FuncName returns the name of fn for logs and error messages, with the
// package path trimmed.
func FuncName(fn any) string {
	return reflection.FuncName(fn)
}
