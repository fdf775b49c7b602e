package reflection

import (
	"reflect"
	"runtime"
	"strings"
	"unsafe"
)

// FuncID returns an identity for a function value.
//
// A func value is a pointer to a closure record whose first word is the code
// pointer. Top-level functions share one static record, so every reference to
// them yields the same ID. Each closure creation yields its own record, so two
// closures built from the same literal are distinct even though they share code.
// Returns 0 for nil or non-function values.
func FuncID(fn any) uintptr {
	if fn == nil {
		return 0
	}

	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func || val.IsNil() {
		return 0
	}

	type iface struct {
		typ  unsafe.Pointer
		data unsafe.Pointer
	}

	// a func stored in an interface is held by pointer to its closure record
	return uintptr((*iface)(unsafe.Pointer(&fn)).data)
}

// FuncName returns the runtime name of fn with the package path trimmed,
// for logging and error messages only.
func FuncName(fn any) string {
	if fn == nil {
		return "<nil>"
	}

	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func {
		return val.Type().String()
	}
	if val.IsNil() {
		return "<nil>"
	}

	f := runtime.FuncForPC(val.Pointer())
	if f == nil {
		return val.Type().String()
	}

	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
