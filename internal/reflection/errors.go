package reflection

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// Signature errors.
	ErrNilFunc         = errors.New("function cannot be nil")
	ErrNotFunc         = errors.New("value is not a function")
	ErrVariadic        = errors.New("variadic functions are not supported")
	ErrHandlerReturns  = errors.New("handler must return nothing or error")
	ErrProducerReturns = errors.New("producer must return T, optionally followed by a cleanup func and/or error")

	// Parameter errors.
	ErrNotInjectable          = errors.New("parameter is neither injectable nor supplied by the host")
	ErrUnexportedField        = errors.New("parameter object field is unexported")
	ErrInterfaceAnnotation    = errors.New("interface types cannot carry a dependency annotation")
	ErrDescriptorPanic        = errors.New("Dependency method panicked on the zero value")
	ErrNilDescriptor          = errors.New("Dependency method returned nil")
	ErrIncompatibleDescriptor = errors.New("descriptor result type is not usable as the parameter type")

	// Invocation errors.
	ErrUnboundProducer = errors.New("descriptor has no producer bound")
	ErrNotSupplied     = errors.New("host value not supplied")
)

var (
	_ error = SignatureError{}
	_ error = ParameterError{}
)

// SignatureError reports a function whose shape is not acceptable for its role.
type SignatureError struct {
	Type  reflect.Type
	Role  Role
	Cause error
}

func (e SignatureError) Error() string {
	if e.Type == nil {
		return fmt.Sprintf("invalid %s: %v", e.Role, e.Cause)
	}
	return fmt.Sprintf("invalid %s %s: %v", e.Role, e.Type, e.Cause)
}

func (e SignatureError) Unwrap() error {
	return e.Cause
}

// ParameterError reports a parameter that cannot be classified.
type ParameterError struct {
	Func  reflect.Type
	Index int
	Type  reflect.Type
	Cause error
}

func (e ParameterError) Error() string {
	return fmt.Sprintf("parameter %d (%s) of %s: %v", e.Index, e.Type, e.Func, e.Cause)
}

func (e ParameterError) Unwrap() error {
	return e.Cause
}
