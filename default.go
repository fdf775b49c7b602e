package depends

import (
	"context"
	"sync/atomic"
)

// defaultInjector holds the injector used by the package-level functions.
var defaultInjector atomic.Pointer[Injector]

// SetDefault sets the Injector used by the package-level Invoke.
// This is similar to slog.SetDefault. Pass nil to go back to a fresh
// injector with default options.
func SetDefault(i *Injector) {
	defaultInjector.Store(i)
}

// Default returns the default Injector, creating it on first use.
func Default() *Injector {
	if i := defaultInjector.Load(); i != nil {
		return i
	}
	defaultInjector.CompareAndSwap(nil, NewInjector())
	return defaultInjector.Load()
}

// Invoke calls fn with its dependencies resolved. Inside an injected
// request it uses the request's scope and injector, so producers that
// already ran are not run again. Elsewhere it uses Default with a scope of
// its own.
func Invoke(ctx context.Context, fn any, values ...any) error {
	if s, err := FromContext(ctx); err == nil {
		return s.injector.Invoke(ctx, fn, values...)
	}
	return Default().Invoke(ctx, fn, values...)
}
