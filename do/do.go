// Package do exposes services of a github.com/samber/do/v2 injector as
// depends descriptors.
//
// Example usage:
//
//	i := do.New()
//	do.Provide(i, NewMailer)
//
//	var mailerDep = ddo.From[Mailer](i)
//
//	func (Mailer) Dependency() depends.Descriptor { return mailerDep }
package do

import (
	"github.com/junioryono/depends"
	"github.com/samber/do/v2"
)

// From returns a descriptor whose producer invokes T from i.
func From[T any](i do.Injector) *depends.Depends[T] {
	return depends.On[T](Producer[T](i))
}

// FromNamed returns a descriptor whose producer invokes the service
// registered under name.
func FromNamed[T any](i do.Injector, name string) *depends.Depends[T] {
	return depends.On[T](NamedProducer[T](i, name))
}

// Bind binds d to invoke T from i and returns d.
func Bind[T any](d *depends.Depends[T], i do.Injector) *depends.Depends[T] {
	return d.Bind(Producer[T](i))
}

// Producer returns a producer that invokes T from i.
func Producer[T any](i do.Injector) func() (T, error) {
	return func() (T, error) {
		return do.Invoke[T](i)
	}
}

// NamedProducer returns a producer that invokes the service named name.
func NamedProducer[T any](i do.Injector, name string) func() (T, error) {
	return func() (T, error) {
		return do.InvokeNamed[T](i, name)
	}
}
