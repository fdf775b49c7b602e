package depends

import (
	"reflect"
	"sync"

	"github.com/junioryono/depends/internal/reflection"
)

// Overrides maps original producers to replacement producers. Each
// Injector owns one table, so overriding a producer on one router never
// affects another.
//
// The table is consulted every time a descriptor is resolved. Lookups are
// one level deep: if a replacement is itself overridden, the second entry
// is ignored. Entries are keyed by function identity, which is stable for
// top-level functions and method values stored in a variable; two closures
// created from the same literal are different producers.
//
// Example:
//
//	router.Overrides().Set(loadUser, func() *User { return &User{Name: "test"} })
//	defer router.Overrides().Clear()
type Overrides struct {
	mu    sync.RWMutex
	table map[uintptr]overrideEntry
}

type overrideEntry struct {
	original    any
	replacement any
}

func newOverrides() *Overrides {
	return &Overrides{table: make(map[uintptr]overrideEntry)}
}

// Set makes replacement run wherever original would. original may be a
// producer function or a Descriptor, in which case its bound producer is
// used.
func (o *Overrides) Set(original, replacement any) error {
	fn, err := producerOf(original)
	if err != nil {
		return OverrideError{Original: original, Replacement: replacement, Cause: err}
	}

	if err := checkFunc(replacement); err != nil {
		return OverrideError{Original: original, Replacement: replacement, Cause: err}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.table[reflection.FuncID(fn)] = overrideEntry{original: fn, replacement: replacement}
	return nil
}

// Delete removes the override for original, if any.
func (o *Overrides) Delete(original any) {
	fn, err := producerOf(original)
	if err != nil {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.table, reflection.FuncID(fn))
}

// Clear removes every override.
func (o *Overrides) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.table = make(map[uintptr]overrideEntry)
}

// Len returns the number of overrides.
func (o *Overrides) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.table)
}

// Lookup returns the producer that runs in place of producer: its
// replacement when one is set, producer itself otherwise.
func (o *Overrides) Lookup(producer any) any {
	id := reflection.FuncID(producer)
	if id == 0 {
		return producer
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	if entry, ok := o.table[id]; ok {
		return entry.replacement
	}
	return producer
}

// producerOf unwraps a Descriptor to its producer and checks it is a function.
func producerOf(original any) (any, error) {
	if d, ok := original.(Descriptor); ok {
		fn := d.Producer()
		if fn == nil {
			return nil, UnboundProducerError{Descriptor: d}
		}
		original = fn
	}

	if err := checkFunc(original); err != nil {
		return nil, err
	}
	return original, nil
}

func checkFunc(fn any) error {
	if fn == nil {
		return ErrOverrideNil
	}

	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func {
		return ErrOverrideNotFunc
	}
	if val.IsNil() {
		return ErrOverrideNil
	}
	return nil
}
