package reflection

import (
	"fmt"
	"reflect"
)

// Resolver provides values for the parameters of an analyzed function.
type Resolver interface {
	// Resolve returns the value produced for d.
	Resolve(d Descriptor) (any, error)

	// Supplied returns the host value of type t, if one was supplied.
	Supplied(t reflect.Type) (reflect.Value, bool)
}

// Result is the outcome of invoking a producer or handler.
type Result struct {
	// Value is the produced value, invalid for handlers.
	Value reflect.Value

	// Cleanup releases what the producer acquired, nil when it returned none.
	Cleanup func() error

	// Err is the error returned by the function itself.
	Err error
}

// BuildArgs resolves every parameter of info in declaration order.
func BuildArgs(info *FuncInfo, r Resolver) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(info.Params))
	for i, param := range info.Params {
		arg, err := buildParam(param, r)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

func buildParam(param Parameter, r Resolver) (reflect.Value, error) {
	switch param.Kind {
	case Supplied:
		val, ok := r.Supplied(param.Type)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrNotSupplied, param.Type)
		}
		return val, nil

	case Injected:
		if param.Optional && param.Descriptor.Producer() == nil {
			return reflect.Zero(param.Type), nil
		}

		value, err := r.Resolve(param.Descriptor)
		if err != nil {
			return reflect.Value{}, err
		}

		val, ok := Coerce(value, param.Type)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %T is not usable as %s", ErrIncompatibleDescriptor, value, param.Type)
		}
		return val, nil

	case ParamObject:
		return buildParamObject(param, r)
	}

	return reflect.Value{}, fmt.Errorf("unknown parameter kind %d", param.Kind)
}

// buildParamObject creates the In struct and fills its fields.
func buildParamObject(param Parameter, r Resolver) (reflect.Value, error) {
	structType := param.Type
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	ptr := reflect.New(structType)
	obj := ptr.Elem()

	for _, field := range param.Fields {
		val, err := buildParam(field, r)
		if err != nil {
			return reflect.Value{}, err
		}
		obj.Field(field.Index).Set(val)
	}

	if param.Type.Kind() == reflect.Pointer {
		return ptr, nil
	}
	return obj, nil
}

// Coerce turns value into a reflect.Value of type t, by assignment or
// conversion. A nil value becomes the zero value of a nillable t.
func Coerce(value any, t reflect.Type) (reflect.Value, bool) {
	if value == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(t) {
		if val.Type() == t {
			return val, true
		}
		out := reflect.New(t).Elem()
		out.Set(val)
		return out, true
	}

	if Compatible(val.Type(), t) {
		return val.Convert(t), true
	}

	return reflect.Value{}, false
}

// Compatible reports whether a from value can be used as a to value, by
// assignment or by converting between a named type and its underlying
// type. Conversions across kinds, such as int64 to int8 or float64 to int,
// are rejected since they may lose the value.
func Compatible(from, to reflect.Type) bool {
	if from.AssignableTo(to) {
		return true
	}
	return from.Kind() == to.Kind() && from.ConvertibleTo(to)
}

// Invoke calls fn with args and splits its returns according to info.
// Panics raised by fn propagate to the caller.
func Invoke(fn reflect.Value, info *FuncInfo, args []reflect.Value) Result {
	out := fn.Call(args)

	var res Result
	if info.ErrorIndex >= 0 {
		if errVal := out[info.ErrorIndex]; !errVal.IsNil() {
			res.Err = errVal.Interface().(error)
			return res
		}
	}

	if info.Role == RoleProducer {
		res.Value = out[0]
	}

	if info.CleanupIndex >= 0 {
		res.Cleanup = cleanupOf(out[info.CleanupIndex])
	}

	return res
}

func cleanupOf(v reflect.Value) func() error {
	if v.IsNil() {
		return nil
	}

	switch fn := v.Interface().(type) {
	case func():
		return func() error {
			fn()
			return nil
		}
	case func() error:
		return fn
	}
	return nil
}
