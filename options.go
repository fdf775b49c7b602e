package depends

import (
	"log/slog"
	"reflect"
)

// Option configures an Injector.
type Option interface {
	apply(*injectorOptions)
}

// injectorOptions holds injector configuration.
type injectorOptions struct {
	logger   *slog.Logger
	supplied []reflect.Type
}

// optionFunc adapts a function to Option.
type optionFunc func(*injectorOptions)

func (f optionFunc) apply(opts *injectorOptions) {
	f(opts)
}

// WithLogger sets the logger used for debug output. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(opts *injectorOptions) {
		opts.logger = logger
	})
}

// WithSupplied declares the types of the request values the host router
// supplies. Handler and producer parameters of these exact types receive
// the value given to Scope.Supply instead of being injected.
//
// context.Context and *Scope are always supplied.
func WithSupplied(types ...reflect.Type) Option {
	return optionFunc(func(opts *injectorOptions) {
		opts.supplied = append(opts.supplied, types...)
	})
}
