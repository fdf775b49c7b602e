// Package dig exposes values of a go.uber.org/dig container as depends
// descriptors.
//
// Application-wide services stay in the container; handlers receive them
// per request like any other dependency, and tests override them through
// the router's override table.
//
// Example usage:
//
//	c := dig.New()
//	c.Provide(NewUserStore)
//
//	var userStoreDep = ddig.From[UserStore](c)
//
//	func (UserStore) Dependency() depends.Descriptor { return userStoreDep }
package dig

import (
	"github.com/junioryono/depends"
	"go.uber.org/dig"
)

// From returns a descriptor whose producer resolves T from c.
func From[T any](c *dig.Container) *depends.Depends[T] {
	return depends.On[T](Producer[T](c))
}

// Bind binds d to resolve T from c and returns d. Use it with descriptors
// created by depends.Declare before the container exists.
func Bind[T any](d *depends.Depends[T], c *dig.Container) *depends.Depends[T] {
	return d.Bind(Producer[T](c))
}

// Producer returns a producer that resolves T from c. Errors reported by
// dig, including a missing constructor, are returned as is.
func Producer[T any](c *dig.Container) func() (T, error) {
	return func() (T, error) {
		var value T
		err := c.Invoke(func(v T) {
			value = v
		})
		return value, err
	}
}
